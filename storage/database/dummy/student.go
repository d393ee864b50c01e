package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/unigate/unigate/core"
	"github.com/unigate/unigate/core/student"
)

type studentRepository struct {
	db *DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) CreateStudent(ctx context.Context, stu student.Student) (student.Student, error) {
	repo.db.student.Lock()
	defer repo.db.student.Unlock()

	repo.db.student.table[stu.ID] = &stu
	return stu, nil
}

func (repo *studentRepository) GetStudent(ctx context.Context, id string) (student.Student, error) {
	repo.db.student.RLock()
	defer repo.db.student.RUnlock()

	if stu, ok := repo.db.student.table[id]; ok {
		return *stu, nil
	}
	return student.Student{}, core.NotFoundError("student not found")
}

// linkedStudentIDs returns the IDs of students with an application assigned to
// an agent owned by the given profile.
func (repo *studentRepository) linkedStudentIDs(profileID string) map[string]bool {
	agentIDs := make(map[string]bool)
	repo.db.agent.RLock()
	for _, agt := range repo.db.agent.table {
		if agt.ProfileID == profileID {
			agentIDs[agt.ID] = true
		}
	}
	repo.db.agent.RUnlock()

	linked := make(map[string]bool)
	repo.db.application.RLock()
	for _, app := range repo.db.application.table {
		if agentIDs[app.AgentID] {
			linked[app.StudentID] = true
		}
	}
	repo.db.application.RUnlock()
	return linked
}

func (repo *studentRepository) QueryStudents(ctx context.Context, tenant string, filter *student.QueryFilter, ordering []core.DBOrdering) ([]student.Student, error) {
	var byAgent map[string]bool
	if filter != nil && filter.AgentProfileID != "" {
		byAgent = repo.linkedStudentIDs(filter.AgentProfileID)
	}
	var byAgentID map[string]bool
	if filter != nil && filter.AgentID != "" {
		byAgentID = make(map[string]bool)
		repo.db.application.RLock()
		for _, app := range repo.db.application.table {
			if app.AgentID == filter.AgentID {
				byAgentID[app.StudentID] = true
			}
		}
		repo.db.application.RUnlock()
	}

	repo.db.student.RLock()
	defer repo.db.student.RUnlock()

	var students []student.Student
	for _, stu := range repo.db.student.table {
		if stu.Tenant != tenant {
			continue
		}
		if byAgent != nil && !byAgent[stu.ID] {
			continue
		}
		if byAgentID != nil && !byAgentID[stu.ID] {
			continue
		}
		if filter != nil {
			if filter.Nationality != "" && !strings.EqualFold(stu.Nationality, filter.Nationality) {
				continue
			}
			if filter.Search != "" {
				search := strings.ToLower(filter.Search)
				if !strings.Contains(strings.ToLower(stu.FullName()), search) &&
					!strings.Contains(strings.ToLower(stu.Email), search) {
					continue
				}
			}
		}
		students = append(students, *stu)
	}
	sort.Slice(students, func(i, j int) bool { return students[i].CreatedAt.After(students[j].CreatedAt) })
	return students, nil
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, stu student.Student) (student.Student, error) {
	repo.db.student.Lock()
	defer repo.db.student.Unlock()

	if _, ok := repo.db.student.table[stu.ID]; !ok {
		return student.Student{}, core.NotFoundError("student not found")
	}
	repo.db.student.table[stu.ID] = &stu
	return stu, nil
}

func (repo *studentRepository) DeleteStudent(ctx context.Context, id string) error {
	repo.db.student.Lock()
	defer repo.db.student.Unlock()
	delete(repo.db.student.table, id)
	return nil
}

func (repo *studentRepository) UpsertTestScore(ctx context.Context, score student.TestScore) (student.TestScore, error) {
	repo.db.testScore.Lock()
	defer repo.db.testScore.Unlock()

	// one score per (student, kind)
	for _, existing := range repo.db.testScore.table {
		if existing.StudentID == score.StudentID && existing.Kind == score.Kind {
			score.ID = existing.ID
			repo.db.testScore.table[score.ID] = &score
			return score, nil
		}
	}
	repo.db.testScore.table[score.ID] = &score
	return score, nil
}

func (repo *studentRepository) ListTestScores(ctx context.Context, studentID string) ([]student.TestScore, error) {
	repo.db.testScore.RLock()
	defer repo.db.testScore.RUnlock()

	var scores []student.TestScore
	for _, score := range repo.db.testScore.table {
		if score.StudentID == studentID {
			scores = append(scores, *score)
		}
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].Kind < scores[j].Kind })
	return scores, nil
}

func (repo *studentRepository) StudentLinkedToAgentProfile(ctx context.Context, studentID, profileID string) (bool, error) {
	return repo.linkedStudentIDs(profileID)[studentID], nil
}
