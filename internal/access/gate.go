// Package access holds the request authorization table. Decisions are a pure
// function of role, verb and resource category and are evaluated on every
// request.
package access

import (
	"net/http"

	"github.com/noah-isme/ecampus-api/internal/models"
	appErrors "github.com/noah-isme/ecampus-api/pkg/errors"
)

// Verb is the operation class of a request.
type Verb string

const (
	VerbRead   Verb = "read"
	VerbCreate Verb = "create"
	VerbUpdate Verb = "update"
	VerbDelete Verb = "delete"
)

// Resource is the category of data a route operates on.
type Resource string

const (
	ResourceAccount              Resource = "account"
	ResourceRegistration         Resource = "registration"
	ResourceTeacher              Resource = "teacher"
	ResourceStudent              Resource = "student"
	ResourceStudentSubject       Resource = "student_subject"
	ResourceAttendance           Resource = "attendance"
	ResourceReport               Resource = "report"
	ResourceAssignment           Resource = "assignment"
	ResourceAssignmentSubmission Resource = "assignment_submission"
	ResourceAssignmentGrade      Resource = "assignment_grade"
	ResourceExamSchedule         Resource = "exam_schedule"
	ResourceExamResult           Resource = "exam_result"
	ResourceNote                 Resource = "note"
	ResourceOwnPassword          Resource = "own_password"
	ResourceInitialPassword      Resource = "initial_password"
)

// VerbFromMethod maps an HTTP method to its verb. Unknown methods map to
// update so they never fall under the read rule.
func VerbFromMethod(method string) Verb {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return VerbRead
	case http.MethodPost:
		return VerbCreate
	case http.MethodDelete:
		return VerbDelete
	default:
		return VerbUpdate
	}
}

var studentWrites = map[Verb]map[Resource]struct{}{
	VerbCreate: {
		ResourceAssignmentSubmission: {},
	},
	VerbUpdate: {
		ResourceOwnPassword:     {},
		ResourceInitialPassword: {},
	},
}

// Decide returns nil when role may perform verb on resource and a forbidden
// error otherwise. Rules are checked in order: reads, teachers, then the
// student write allowances.
func Decide(role models.Role, verb Verb, resource Resource) error {
	if verb == VerbRead {
		return nil
	}
	switch role {
	case models.RoleTeacher:
		return nil
	case models.RoleStudent:
		if _, ok := studentWrites[verb][resource]; ok {
			return nil
		}
		return appErrors.Clone(appErrors.ErrForbidden, "students cannot perform this action")
	default:
		return appErrors.Clone(appErrors.ErrForbidden, "invalid role")
	}
}
