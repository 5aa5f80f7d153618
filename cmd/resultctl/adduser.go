package main

import (
	"errors"
	"fmt"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/noah-isme/result-ledger-api/internal/models"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errEmptyPassword = errors.New("password must not be empty")
)

func (cli *commandLine) addUserCmd() *cobra.Command {
	var email, name, role, school string

	cmd := &cobra.Command{
		Use:   "adduser",
		Short: "Create an account; the password is prompted",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.OutOrStdout(), "Enter password:")
			pwd, err := readPasswordFunc(int(syscall.Stdin))
			fmt.Fprintln(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if len(pwd) == 0 {
				return errEmptyPassword
			}

			req := models.CreateUserRequest{
				Email:    email,
				Password: string(pwd),
				FullName: name,
				Role:     models.UserRole(strings.ToUpper(strings.TrimSpace(role))),
			}
			if school = strings.TrimSpace(school); school != "" {
				req.SchoolID = &school
			}

			user, err := cli.accounts.Create(cmd.Context(), req, "", models.LoginRequest{UserAgent: "resultctl"})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s %s (%s)\n", user.Role, user.Email, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&name, "name", "", "full name")
	cmd.Flags().StringVar(&role, "role", string(models.RoleTeacher), "SUPERADMIN, ADMIN or TEACHER")
	cmd.Flags().StringVar(&school, "school", "", "school id (not allowed for SUPERADMIN)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}
