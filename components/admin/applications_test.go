// components/admin/applications_test.go

package admin

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yanizio/jobboard/internal/api"
)

func TestAppFilterMatch(t *testing.T) {
	app := api.Application{
		Status:    api.ApplicationReviewed,
		Applicant: api.UserRef{Name: "Ann Lee", Email: "ann@x.com"},
		Job:       api.JobRef{Title: "Go Developer", Company: "Acme"},
	}
	cases := []struct {
		f    AppFilter
		want bool
	}{
		{AppFilter{}, true},
		{AppFilter{Status: StatusAll}, true},
		{AppFilter{Status: api.ApplicationReviewed}, true},
		{AppFilter{Status: api.ApplicationPending}, false},
		{AppFilter{Query: "ann"}, true},
		{AppFilter{Query: "X.COM"}, true},
		{AppFilter{Query: "developer"}, true},
		{AppFilter{Query: "acme", Status: api.ApplicationRejected}, false},
		{AppFilter{Query: "rust"}, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.f.Match(app), "%+v", c.f)
	}
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"Go", "SQL", "Docker"}, SplitList("Go, SQL\n Docker ,"))
	assert.Equal(t, []string{"5 years"}, SplitList("\r\n5 years\r\n"))
	assert.Nil(t, SplitList(" , ,\n"))
}

func TestCreateJobInputLists(t *testing.T) {
	in := createJobInput{Title: "Go Dev", Requirements: "3+ years\nGo", Skills: "go, sql", IsActive: "on"}
	body, err := in.jobInput()
	assert.NoError(t, err)
	assert.Equal(t, []string{"3+ years", "Go"}, body.Requirements)
	assert.Equal(t, []string{"go", "sql"}, body.Skills)
	assert.True(t, body.IsActive)

	_, err = createJobInput{Requirements: ",", Skills: "go"}.jobInput()
	assert.Error(t, err)
}
