package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/result-ledger-api/internal/dto"
	"github.com/noah-isme/result-ledger-api/internal/models"
	appErrors "github.com/noah-isme/result-ledger-api/pkg/errors"
)

type mockSchoolRepo struct {
	schools  map[string]models.School
	students map[string]int
	deleted  []string
}

func newMockSchoolRepo(schools ...models.School) *mockSchoolRepo {
	m := &mockSchoolRepo{schools: map[string]models.School{}, students: map[string]int{}}
	for _, s := range schools {
		m.schools[s.ID] = s
	}
	return m
}

func (m *mockSchoolRepo) List(ctx context.Context, filter models.SchoolFilter) ([]models.School, int, error) {
	result := make([]models.School, 0, len(m.schools))
	for _, s := range m.schools {
		result = append(result, s)
	}
	return result, len(result), nil
}

func (m *mockSchoolRepo) FindByID(ctx context.Context, id string) (*models.School, error) {
	s, ok := m.schools[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &s, nil
}

func (m *mockSchoolRepo) ExistsByCode(ctx context.Context, code, excludeID string) (bool, error) {
	for _, s := range m.schools {
		if s.Code == code && s.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockSchoolRepo) Create(ctx context.Context, school *models.School) error {
	school.ID = "school-" + school.Code
	m.schools[school.ID] = *school
	return nil
}

func (m *mockSchoolRepo) Update(ctx context.Context, school *models.School) error {
	m.schools[school.ID] = *school
	return nil
}

func (m *mockSchoolRepo) Delete(ctx context.Context, id string) error {
	delete(m.schools, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockSchoolRepo) CountStudents(ctx context.Context, id string) (int, error) {
	return m.students[id], nil
}

func TestSchoolServiceCreateNormalisesCode(t *testing.T) {
	repo := newMockSchoolRepo()
	svc := NewSchoolService(repo, nil, nil, nil)

	school, err := svc.Create(context.Background(), dto.SchoolRequest{Code: " kms ", Name: " Kathmandu Model "})
	require.NoError(t, err)
	assert.Equal(t, "KMS", school.Code)
	assert.Equal(t, "Kathmandu Model", school.Name)
	assert.Contains(t, repo.schools, school.ID)
}

func TestSchoolServiceCreateDuplicateCode(t *testing.T) {
	repo := newMockSchoolRepo(models.School{ID: "s1", Code: "KMS", Name: "Existing"})
	svc := NewSchoolService(repo, nil, nil, nil)

	_, err := svc.Create(context.Background(), dto.SchoolRequest{Code: "kms", Name: "Another"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	_, err = svc.Create(context.Background(), dto.SchoolRequest{Code: "", Name: "Another"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSchoolServiceUpdateInvalidatesCache(t *testing.T) {
	repo := newMockSchoolRepo(models.School{ID: "s1", Code: "KMS", Name: "Old"})
	cacheRepo := newMemoryCache()
	svc := NewSchoolService(repo, NewCacheService(cacheRepo, nil, time.Minute, nil, true), nil, nil)

	school, err := svc.Update(context.Background(), "s1", dto.SchoolRequest{Code: "KMS", Name: "New"})
	require.NoError(t, err)
	assert.Equal(t, "New", school.Name)
	assert.Equal(t, []string{"grades:s1:*"}, cacheRepo.patterns)
}

func TestSchoolServiceDelete(t *testing.T) {
	repo := newMockSchoolRepo(models.School{ID: "s1", Code: "A"}, models.School{ID: "s2", Code: "B"})
	repo.students["s1"] = 3
	svc := NewSchoolService(repo, nil, nil, nil)
	ctx := context.Background()

	err := svc.Delete(ctx, "s1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.Delete(ctx, "s2"))
	assert.Equal(t, []string{"s2"}, repo.deleted)

	err = svc.Delete(ctx, "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

type mockSubjectRepo struct {
	subjects    map[models.SubjectID]models.Subject
	assignments map[models.SubjectID]int
	nextID      models.SubjectID
}

func newMockSubjectRepo(subjects ...models.Subject) *mockSubjectRepo {
	m := &mockSubjectRepo{subjects: map[models.SubjectID]models.Subject{}, assignments: map[models.SubjectID]int{}, nextID: 100}
	for _, s := range subjects {
		m.subjects[s.ID] = s
	}
	return m
}

func (m *mockSubjectRepo) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error) {
	var result []models.Subject
	for _, s := range m.subjects {
		if filter.Grade == 0 || s.Grade == filter.Grade {
			result = append(result, s)
		}
	}
	return result, len(result), nil
}

func (m *mockSubjectRepo) FindByID(ctx context.Context, id models.SubjectID) (*models.Subject, error) {
	s, ok := m.subjects[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &s, nil
}

func (m *mockSubjectRepo) ExistsBySubCode(ctx context.Context, code string, excludeID models.SubjectID) (bool, error) {
	for _, s := range m.subjects {
		if s.ID == excludeID {
			continue
		}
		if s.Theory.SubCode == code || s.Internal.SubCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockSubjectRepo) Create(ctx context.Context, subject *models.Subject) error {
	m.nextID++
	subject.ID = m.nextID
	m.subjects[subject.ID] = *subject
	return nil
}

func (m *mockSubjectRepo) Update(ctx context.Context, subject *models.Subject) error {
	m.subjects[subject.ID] = *subject
	return nil
}

func (m *mockSubjectRepo) Delete(ctx context.Context, id models.SubjectID) error {
	delete(m.subjects, id)
	return nil
}

func (m *mockSubjectRepo) CountAssignments(ctx context.Context, id models.SubjectID) (int, error) {
	return m.assignments[id], nil
}

func subjectRequest(name string, grade int, thCode, inCode string) dto.SubjectRequest {
	return dto.SubjectRequest{
		Name:     name,
		Grade:    grade,
		Theory:   dto.SubjectComponentRequest{SubCode: thCode, Credit: 3, FullMarks: 75, PassMarks: 27},
		Internal: dto.SubjectComponentRequest{SubCode: inCode, Credit: 1, FullMarks: 25, PassMarks: 10},
	}
}

func TestSubjectServiceCreate(t *testing.T) {
	repo := newMockSubjectRepo(testSubject(1, "English", models.GradeEleven))
	svc := NewSubjectService(repo, nil, nil, nil)
	ctx := context.Background()

	subject, err := svc.Create(ctx, subjectRequest("Chemistry", 11, "chem-th", "chem-in"))
	require.NoError(t, err)
	assert.Equal(t, models.SubjectID(101), subject.ID)
	assert.Equal(t, "CHEM-TH", subject.Theory.SubCode)
	assert.InDelta(t, 4.0, subject.TotalCredit(), 1e-9)

	_, err = svc.Create(ctx, subjectRequest("English II", 11, "english-th", "ENG2-IN"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestSubjectServiceCreateValidation(t *testing.T) {
	svc := NewSubjectService(newMockSubjectRepo(), nil, nil, nil)
	ctx := context.Background()

	cases := map[string]dto.SubjectRequest{
		"same codes": subjectRequest("Art", 11, "ART", "art"),
		"bad grade":  subjectRequest("Art", 10, "ART-TH", "ART-IN"),
	}
	passTooHigh := subjectRequest("Art", 11, "ART-TH", "ART-IN")
	passTooHigh.Internal.PassMarks = 30
	cases["pass above full"] = passTooHigh

	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(ctx, req)
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
		})
	}
}

func TestSubjectServiceUpdateGradeChange(t *testing.T) {
	repo := newMockSubjectRepo(testSubject(1, "English", models.GradeEleven))
	repo.assignments[1] = 2
	cacheRepo := newMemoryCache()
	svc := NewSubjectService(repo, NewCacheService(cacheRepo, nil, time.Minute, nil, true), nil, nil)
	ctx := context.Background()

	_, err := svc.Update(ctx, 1, subjectRequest("English", 12, "ENGLISH-TH", "ENGLISH-IN"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)

	updated, err := svc.Update(ctx, 1, subjectRequest("English Language", 11, "ENGLISH-TH", "ENGLISH-IN"))
	require.NoError(t, err)
	assert.Equal(t, "English Language", updated.Name)
	assert.Equal(t, []string{"grades:*"}, cacheRepo.patterns)
}

func TestSubjectServiceDeleteAssigned(t *testing.T) {
	repo := newMockSubjectRepo(testSubject(1, "English", models.GradeEleven), testSubject(2, "Physics", models.GradeEleven))
	repo.assignments[1] = 1
	svc := NewSubjectService(repo, nil, nil, nil)
	ctx := context.Background()

	err := svc.Delete(ctx, 1)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.Delete(ctx, 2))
	assert.NotContains(t, repo.subjects, models.SubjectID(2))
}
