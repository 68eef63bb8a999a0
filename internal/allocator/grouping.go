package allocator

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/Pushkar524/exam-seat-allotment/internal/models"
)

// GroupingKey selects how the roster is partitioned into groups.
type GroupingKey string

const (
	GroupByDepartment   GroupingKey = "department"
	GroupByAcademicYear GroupingKey = "academic_year"
	GroupBySubject      GroupingKey = "subject"
)

// Group is a named bucket of students, ordered by roll number so placement
// is deterministic and reproducible.
type Group struct {
	Key       string
	SubjectID *string
	Students  []models.Student
}

// Grouping is the ordered set of groups produced for one run. Unmapped
// holds students whose department has no subject mapping in subject-aware
// runs; they are excluded from placement but always reported.
type Grouping struct {
	Groups   []Group
	Unmapped []models.Student
}

// TotalDemand counts students across all groups.
func (g *Grouping) TotalDemand() int {
	total := 0
	for _, group := range g.Groups {
		total += len(group.Students)
	}
	return total
}

// ResolveInput carries the roster and, for subject-aware runs, the
// department-to-subject mappings and subject metadata for the exam.
type ResolveInput struct {
	Roster   []models.Student
	Key      GroupingKey
	Mappings []models.DepartmentSubjectMapping
	Subjects []models.Subject
}

// Resolve partitions the roster into ordered groups. Subject-aware runs
// fail fast with *InvalidMappingError before any planning when a mapping
// does not resolve or a department maps to temporally overlapping subjects.
func Resolve(in ResolveInput) (*Grouping, error) {
	switch in.Key {
	case GroupByDepartment:
		return resolveByField(in.Roster, func(s models.Student) string { return s.Department }), nil
	case GroupByAcademicYear:
		return resolveByField(in.Roster, func(s models.Student) string { return strconv.Itoa(s.AcademicYear) }), nil
	case GroupBySubject:
		return resolveBySubject(in)
	default:
		return nil, fmt.Errorf("unknown grouping key %q", in.Key)
	}
}

func resolveByField(roster []models.Student, keyOf func(models.Student) string) *Grouping {
	byKey := make(map[string][]models.Student)
	for _, student := range roster {
		key := keyOf(student)
		byKey[key] = append(byKey[key], student)
	}
	return buildGrouping(byKey, nil)
}

func resolveBySubject(in ResolveInput) (*Grouping, error) {
	subjects := make(map[string]models.Subject, len(in.Subjects))
	for _, subject := range in.Subjects {
		subjects[subject.ID] = subject
	}

	mapped := make(map[string][]models.Subject)
	for _, mapping := range in.Mappings {
		subject, ok := subjects[mapping.SubjectID]
		if !ok {
			return nil, &InvalidMappingError{
				Department: mapping.Department,
				Reason:     fmt.Sprintf("subject %s not found", mapping.SubjectID),
			}
		}
		mapped[mapping.Department] = append(mapped[mapping.Department], subject)
	}

	if len(mapped) == 0 {
		return nil, &InvalidMappingError{Reason: "no department-subject mappings supplied"}
	}

	for department, subjectList := range mapped {
		if err := checkOverlaps(department, subjectList); err != nil {
			return nil, err
		}
	}

	byKey := make(map[string][]models.Student)
	subjectOf := make(map[string]*string)
	var unmapped []models.Student
	for _, student := range in.Roster {
		subjectList, ok := mapped[student.Department]
		if !ok {
			unmapped = append(unmapped, student)
			continue
		}
		for _, subject := range subjectList {
			key := student.Department + ":" + subject.Code
			byKey[key] = append(byKey[key], student)
			if subjectOf[key] == nil {
				id := subject.ID
				subjectOf[key] = &id
			}
		}
	}

	sortByRollNo(unmapped)
	grouping := buildGrouping(byKey, subjectOf)
	grouping.Unmapped = unmapped
	return grouping, nil
}

// checkOverlaps rejects two subjects for one department whose windows
// collide on the same date: startA < endB && endA > startB.
func checkOverlaps(department string, subjects []models.Subject) error {
	for i := 0; i < len(subjects); i++ {
		for j := i + 1; j < len(subjects); j++ {
			a, b := subjects[i], subjects[j]
			if !sameDate(a.ExamDate, b.ExamDate) {
				continue
			}
			if a.StartTime.Before(b.EndTime) && a.EndTime.After(b.StartTime) {
				return &InvalidMappingError{
					Department: department,
					Reason:     fmt.Sprintf("subjects %s and %s have overlapping windows", a.Code, b.Code),
				}
			}
		}
	}
	return nil
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func buildGrouping(byKey map[string][]models.Student, subjectOf map[string]*string) *Grouping {
	keys := make([]string, 0, len(byKey))
	for key := range byKey {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	groups := make([]Group, 0, len(keys))
	for _, key := range keys {
		students := byKey[key]
		sortByRollNo(students)
		group := Group{Key: key, Students: students}
		if subjectOf != nil {
			group.SubjectID = subjectOf[key]
		}
		groups = append(groups, group)
	}
	return &Grouping{Groups: groups}
}

func sortByRollNo(students []models.Student) {
	sort.Slice(students, func(i, j int) bool {
		return students[i].RollNo < students[j].RollNo
	})
}
