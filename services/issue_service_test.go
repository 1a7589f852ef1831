// services/issue_service_test.go
package services

import (
	"fmt"
	"testing"

	"bugtrack/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type issueFixture struct {
	db       *gorm.DB
	svc      *IssueService
	projects *ProjectService
	owner    *models.User
	member   *models.User
	outsider *models.User
	project  *models.ProjectInfo
}

func newIssueFixture(t *testing.T) *issueFixture {
	db := newTestDB(t)
	f := &issueFixture{
		db:       db,
		svc:      NewIssueService(db),
		projects: NewProjectService(db),
		owner:    createUser(t, db, "owner"),
		member:   createUser(t, db, "member"),
		outsider: createUser(t, db, "outsider"),
	}

	project, err := f.projects.CreateProject(f.owner.ID, "Alpha", "")
	require.NoError(t, err)
	f.project = project

	_, err = f.projects.AddMember(project.ID, f.owner.ID, f.member.ID, models.ProjectRoleMember)
	require.NoError(t, err)

	return f
}

func TestCreateIssueDefaults(t *testing.T) {
	f := newIssueFixture(t)

	issue, err := f.svc.CreateIssue(f.project.ID, f.member.ID, CreateIssueInput{
		Title: "Crash on save",
	})
	require.NoError(t, err)

	assert.Equal(t, models.IssueStatusOpen, issue.Status)
	assert.Equal(t, models.IssuePriorityMedium, issue.Priority)
	assert.Equal(t, f.member.ID, issue.ReporterID)
	assert.Nil(t, issue.AssigneeID)
	assert.Equal(t, int64(0), issue.CommentCount)
}

func TestCreateIssueValidation(t *testing.T) {
	f := newIssueFixture(t)

	_, err := f.svc.CreateIssue(f.project.ID, f.member.ID, CreateIssueInput{Title: "  "})
	requireStatus(t, err, 400)

	_, err = f.svc.CreateIssue(f.project.ID, f.member.ID, CreateIssueInput{
		Title: "Bug", Status: "wontfix",
	})
	requireStatus(t, err, 400)

	_, err = f.svc.CreateIssue(f.project.ID, f.member.ID, CreateIssueInput{
		Title: "Bug", Priority: "urgent",
	})
	requireStatus(t, err, 400)

	// Assignee must be a member of the project
	_, err = f.svc.CreateIssue(f.project.ID, f.member.ID, CreateIssueInput{
		Title: "Bug", AssigneeID: &f.outsider.ID,
	})
	requireStatus(t, err, 400)

	// The owner counts as a member for assignment
	issue, err := f.svc.CreateIssue(f.project.ID, f.member.ID, CreateIssueInput{
		Title: "Bug", AssigneeID: &f.owner.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, issue.AssigneeID)
	assert.Equal(t, f.owner.ID, *issue.AssigneeID)

	// Non-members cannot report at all
	_, err = f.svc.CreateIssue(f.project.ID, f.outsider.ID, CreateIssueInput{Title: "Bug"})
	requireStatus(t, err, 403)
}

func TestListIssuesDeniesNonMembers(t *testing.T) {
	f := newIssueFixture(t)

	_, _, err := f.svc.ListIssues(f.project.ID, f.outsider.ID, 1, 20, IssueFilter{})
	requireStatus(t, err, 403)
}

func TestListIssuesSearch(t *testing.T) {
	f := newIssueFixture(t)

	titles := []string{"Crash on save", "Login broken", "Crash on load"}
	for _, title := range titles {
		_, err := f.svc.CreateIssue(f.project.ID, f.owner.ID, CreateIssueInput{Title: title})
		require.NoError(t, err)
	}
	_, err := f.svc.CreateIssue(f.project.ID, f.owner.ID, CreateIssueInput{
		Title:       "Slow page",
		Description: "Page CRASHES the browser after a while",
	})
	require.NoError(t, err)

	// Case-insensitive substring over title and description
	issues, pagination, err := f.svc.ListIssues(f.project.ID, f.member.ID, 1, 20, IssueFilter{Search: "cRaSh"})
	require.NoError(t, err)
	assert.Len(t, issues, 3)
	assert.Equal(t, int64(3), pagination.Count)

	// Empty search returns everything
	issues, _, err = f.svc.ListIssues(f.project.ID, f.member.ID, 1, 20, IssueFilter{})
	require.NoError(t, err)
	assert.Len(t, issues, 4)

	// Newest first
	assert.Equal(t, "Slow page", issues[0].Title)
}

func TestListIssuesStatusPriorityFilter(t *testing.T) {
	f := newIssueFixture(t)

	_, err := f.svc.CreateIssue(f.project.ID, f.owner.ID, CreateIssueInput{
		Title: "A", Status: models.IssueStatusClosed, Priority: models.IssuePriorityHigh,
	})
	require.NoError(t, err)
	_, err = f.svc.CreateIssue(f.project.ID, f.owner.ID, CreateIssueInput{
		Title: "B", Priority: models.IssuePriorityHigh,
	})
	require.NoError(t, err)
	_, err = f.svc.CreateIssue(f.project.ID, f.owner.ID, CreateIssueInput{Title: "C"})
	require.NoError(t, err)

	issues, _, err := f.svc.ListIssues(f.project.ID, f.owner.ID, 1, 20, IssueFilter{
		Status: models.IssueStatusClosed,
	})
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "A", issues[0].Title)

	issues, _, err = f.svc.ListIssues(f.project.ID, f.owner.ID, 1, 20, IssueFilter{
		Priority: models.IssuePriorityHigh,
	})
	require.NoError(t, err)
	assert.Len(t, issues, 2)
}

func TestListIssuesPagination(t *testing.T) {
	f := newIssueFixture(t)

	for i := 0; i < 45; i++ {
		_, err := f.svc.CreateIssue(f.project.ID, f.owner.ID, CreateIssueInput{
			Title: fmt.Sprintf("Issue %02d", i),
		})
		require.NoError(t, err)
	}

	issues, pagination, err := f.svc.ListIssues(f.project.ID, f.owner.ID, 1, 20, IssueFilter{})
	require.NoError(t, err)
	assert.Len(t, issues, 20)
	assert.Equal(t, int64(45), pagination.Count)
	assert.Equal(t, 3, pagination.TotalPages) // ceil(45/20)
	assert.Nil(t, pagination.Previous)
	require.NotNil(t, pagination.Next)
	assert.Equal(t, 2, *pagination.Next)

	issues, pagination, err = f.svc.ListIssues(f.project.ID, f.owner.ID, 3, 20, IssueFilter{})
	require.NoError(t, err)
	assert.Len(t, issues, 5)
	assert.Nil(t, pagination.Next)
	require.NotNil(t, pagination.Previous)
	assert.Equal(t, 2, *pagination.Previous)

	// Past the end: empty result set, not an error
	issues, pagination, err = f.svc.ListIssues(f.project.ID, f.owner.ID, 4, 20, IssueFilter{})
	require.NoError(t, err)
	assert.Empty(t, issues)
	assert.Equal(t, int64(45), pagination.Count)
}

func TestUpdateIssuePartial(t *testing.T) {
	f := newIssueFixture(t)

	issue, err := f.svc.CreateIssue(f.project.ID, f.member.ID, CreateIssueInput{
		Title:       "Crash on save",
		Description: "details",
		Priority:    models.IssuePriorityHigh,
	})
	require.NoError(t, err)

	status := models.IssueStatusInProgress
	updated, err := f.svc.UpdateIssue(f.project.ID, issue.ID, f.member.ID, UpdateIssueInput{
		Status: &status,
	})
	require.NoError(t, err)

	// Unspecified fields stay put
	assert.Equal(t, models.IssueStatusInProgress, updated.Status)
	assert.Equal(t, "Crash on save", updated.Title)
	assert.Equal(t, "details", updated.Description)
	assert.Equal(t, models.IssuePriorityHigh, updated.Priority)
}

func TestUpdateIssueAssignee(t *testing.T) {
	f := newIssueFixture(t)

	issue, err := f.svc.CreateIssue(f.project.ID, f.owner.ID, CreateIssueInput{Title: "Bug"})
	require.NoError(t, err)

	updated, err := f.svc.UpdateIssue(f.project.ID, issue.ID, f.owner.ID, UpdateIssueInput{
		AssigneeID: &f.member.ID, AssigneeSet: true,
	})
	require.NoError(t, err)
	require.NotNil(t, updated.AssigneeID)
	assert.Equal(t, f.member.ID, *updated.AssigneeID)

	// Non-member assignee rejected
	_, err = f.svc.UpdateIssue(f.project.ID, issue.ID, f.owner.ID, UpdateIssueInput{
		AssigneeID: &f.outsider.ID, AssigneeSet: true,
	})
	requireStatus(t, err, 400)

	// Explicit null clears the assignee
	updated, err = f.svc.UpdateIssue(f.project.ID, issue.ID, f.owner.ID, UpdateIssueInput{
		AssigneeSet: true,
	})
	require.NoError(t, err)
	assert.Nil(t, updated.AssigneeID)
}

func TestUpdateIssuePermissions(t *testing.T) {
	f := newIssueFixture(t)
	db := f.db
	other := createUser(t, db, "other")
	_, err := f.projects.AddMember(f.project.ID, f.owner.ID, other.ID, models.ProjectRoleMember)
	require.NoError(t, err)

	issue, err := f.svc.CreateIssue(f.project.ID, f.member.ID, CreateIssueInput{Title: "Bug"})
	require.NoError(t, err)

	title := "renamed"

	// A plain member who is neither reporter nor assignee cannot edit
	_, err = f.svc.UpdateIssue(f.project.ID, issue.ID, other.ID, UpdateIssueInput{Title: &title})
	requireStatus(t, err, 403)

	// ...until they are assigned to it
	_, err = f.svc.UpdateIssue(f.project.ID, issue.ID, f.owner.ID, UpdateIssueInput{
		AssigneeID: &other.ID, AssigneeSet: true,
	})
	require.NoError(t, err)
	_, err = f.svc.UpdateIssue(f.project.ID, issue.ID, other.ID, UpdateIssueInput{Title: &title})
	require.NoError(t, err)

	// Outsiders are denied outright
	_, err = f.svc.UpdateIssue(f.project.ID, issue.ID, f.outsider.ID, UpdateIssueInput{Title: &title})
	requireStatus(t, err, 403)
}

func TestDeleteIssue(t *testing.T) {
	f := newIssueFixture(t)
	db := f.db
	other := createUser(t, db, "other")
	_, err := f.projects.AddMember(f.project.ID, f.owner.ID, other.ID, models.ProjectRoleMember)
	require.NoError(t, err)

	issue, err := f.svc.CreateIssue(f.project.ID, f.member.ID, CreateIssueInput{Title: "Bug"})
	require.NoError(t, err)

	// Another plain member cannot delete someone else's issue
	requireStatus(t, f.svc.DeleteIssue(f.project.ID, issue.ID, other.ID), 403)

	// The reporter can
	require.NoError(t, f.svc.DeleteIssue(f.project.ID, issue.ID, f.member.ID))

	_, err = f.svc.GetIssue(f.project.ID, issue.ID, f.member.ID)
	requireStatus(t, err, 404)
}

func TestMyIssues(t *testing.T) {
	f := newIssueFixture(t)

	_, err := f.svc.CreateIssue(f.project.ID, f.owner.ID, CreateIssueInput{
		Title: "Assigned to member", AssigneeID: &f.member.ID,
	})
	require.NoError(t, err)
	_, err = f.svc.CreateIssue(f.project.ID, f.owner.ID, CreateIssueInput{
		Title: "Unassigned",
	})
	require.NoError(t, err)

	issues, pagination, err := f.svc.MyIssues(f.member.ID, 1, 20, IssueFilter{})
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "Assigned to member", issues[0].Title)
	assert.Equal(t, int64(1), pagination.Count)

	issues, _, err = f.svc.MyIssues(f.outsider.ID, 1, 20, IssueFilter{})
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestListAccessibleIssues(t *testing.T) {
	f := newIssueFixture(t)

	// A second project the fixture member has no business seeing
	other, err := f.projects.CreateProject(f.outsider.ID, "Beta", "")
	require.NoError(t, err)

	_, err = f.svc.CreateIssue(f.project.ID, f.owner.ID, CreateIssueInput{Title: "Alpha bug"})
	require.NoError(t, err)
	_, err = f.svc.CreateIssue(other.ID, f.outsider.ID, CreateIssueInput{Title: "Beta bug"})
	require.NoError(t, err)

	// The member sees issues from their project only, regardless of
	// reporter or assignee
	issues, pagination, err := f.svc.ListAccessible(f.member.ID, 1, 20, IssueFilter{})
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "Alpha bug", issues[0].Title)
	assert.Equal(t, int64(1), pagination.Count)

	// Ownership grants access without a membership row
	issues, _, err = f.svc.ListAccessible(f.outsider.ID, 1, 20, IssueFilter{})
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "Beta bug", issues[0].Title)

	// Joining the second project widens the listing; filters span projects
	_, err = f.projects.AddMember(other.ID, f.outsider.ID, f.member.ID, models.ProjectRoleMember)
	require.NoError(t, err)

	issues, pagination, err = f.svc.ListAccessible(f.member.ID, 1, 20, IssueFilter{})
	require.NoError(t, err)
	assert.Len(t, issues, 2)
	assert.Equal(t, int64(2), pagination.Count)

	issues, _, err = f.svc.ListAccessible(f.member.ID, 1, 20, IssueFilter{Search: "beta"})
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "Beta bug", issues[0].Title)
}

// End-to-end scenario: A owns "Alpha", adds B; B reports a high-priority
// crash; A assigns it to B; B moves it to in_progress.
func TestIssueLifecycleScenario(t *testing.T) {
	db := newTestDB(t)
	projects := NewProjectService(db)
	issues := NewIssueService(db)
	userA := createUser(t, db, "A")
	userB := createUser(t, db, "B")

	alpha, err := projects.CreateProject(userA.ID, "Alpha", "")
	require.NoError(t, err)
	_, err = projects.AddMember(alpha.ID, userA.ID, userB.ID, models.ProjectRoleMember)
	require.NoError(t, err)

	issue, err := issues.CreateIssue(alpha.ID, userB.ID, CreateIssueInput{
		Title:    "Crash on save",
		Priority: models.IssuePriorityHigh,
	})
	require.NoError(t, err)

	_, err = issues.UpdateIssue(alpha.ID, issue.ID, userA.ID, UpdateIssueInput{
		AssigneeID: &userB.ID, AssigneeSet: true,
	})
	require.NoError(t, err)

	status := models.IssueStatusInProgress
	final, err := issues.UpdateIssue(alpha.ID, issue.ID, userB.ID, UpdateIssueInput{
		Status: &status,
	})
	require.NoError(t, err)

	require.NotNil(t, final.Assignee)
	assert.Equal(t, "B", final.Assignee.Username)
	assert.Equal(t, models.IssueStatusInProgress, final.Status)

	info, err := projects.GetProject(alpha.ID, userA.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), info.IssueCount)
}
