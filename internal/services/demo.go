package services

import (
	"context"
	"fmt"
	"time"

	"github.com/depflow/depflow/internal/jira"
)

// demoSource serves a fixed synthetic portfolio so the dashboard can be
// demonstrated without tracker credentials. It implements IssueSource, so
// import and webhook handling behave exactly as against a live tracker.
type demoSource struct {
	issues map[string]*jira.Issue
	order  []string
}

type demoTeam struct {
	name string
	art  string
}

var demoTeams = []demoTeam{
	{"Platform", "ART Phoenix"},
	{"Mobile", "ART Phoenix"},
	{"Payments", "ART Atlas"},
	{"Identity", "ART Atlas"},
	{"Data", "ART Orion"},
	{"Infra", "ART Orion"},
}

var demoStatuses = []string{"To Do", "In Progress", "Blocked", "In Review", "Done"}

var demoLinkTypes = []string{"blocks", "depends on", "is blocked by"}

// NewDemoSource builds the synthetic portfolio: a handful of issues per
// team, chained to issues of other teams so both intra- and cross-ART
// dependencies appear.
func NewDemoSource() IssueSource {
	s := &demoSource{issues: make(map[string]*jira.Issue)}

	base := time.Now().Truncate(24 * time.Hour)
	seq := 0
	for ti, team := range demoTeams {
		for n := 1; n <= 4; n++ {
			seq++
			key := fmt.Sprintf("DEMO-%d", seq)

			var due *time.Time
			// give a third of the portfolio a deadline around today
			if seq%3 == 0 {
				d := base.AddDate(0, 0, (seq%10)-4)
				due = &d
			}

			issue := &jira.Issue{
				ID:          fmt.Sprintf("1%04d", seq),
				Key:         key,
				Summary:     fmt.Sprintf("%s deliverable %d", team.name, n),
				Description: fmt.Sprintf("Synthetic work item %d for %s", n, team.name),
				Type:        "Story",
				Status:      demoStatuses[seq%len(demoStatuses)],
				DueDate:     due,
				Team:        team.name,
				ART:         team.art,
			}

			// link every second issue to the next team's matching item
			if n%2 == 0 {
				next := demoTeams[(ti+1)%len(demoTeams)]
				targetSeq := indexOfDemoTeam(next.name)*4 + n
				issue.Links = []jira.IssueLink{{
					TypeName:  demoLinkTypes[seq%len(demoLinkTypes)],
					TargetKey: fmt.Sprintf("DEMO-%d", targetSeq),
				}}
			}

			s.issues[key] = issue
			s.order = append(s.order, key)
		}
	}

	return s
}

func indexOfDemoTeam(name string) int {
	for i, t := range demoTeams {
		if t.name == name {
			return i
		}
	}
	return 0
}

func (s *demoSource) GetIssue(_ context.Context, key string) (*jira.Issue, error) {
	issue, ok := s.issues[key]
	if !ok {
		return nil, fmt.Errorf("demo issue not found: %s", key)
	}
	return issue, nil
}

func (s *demoSource) SearchIssuesWithLinks(_ context.Context, _ int) ([]jira.Issue, error) {
	var out []jira.Issue
	for _, key := range s.order {
		if issue := s.issues[key]; len(issue.Links) > 0 {
			out = append(out, *issue)
		}
	}
	return out, nil
}
