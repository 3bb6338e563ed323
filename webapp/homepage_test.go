package webapp

import (
	"testing"
	"time"
)

func TestResumeCardMeta(t *testing.T) {
	tests := []struct {
		name   string
		resume Resume
		want   string
	}{
		{name: "Size only", resume: Resume{ResumeSize: 2048}, want: "2.00 KB"},
		{name: "Single page", resume: Resume{ResumeSize: 1536, PageCount: 1}, want: "1.50 KB | 1 page"},
		{name: "Several pages", resume: Resume{ResumeSize: 1 << 20, PageCount: 3}, want: "1.00 MB | 3 pages"},
		{name: "Recent", resume: Resume{ResumeSize: 512, CreatedAt: time.Now().UTC().Format(time.RFC3339)}, want: "512.00 Bytes | Just now"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := &ResumeCard{Resume: tt.resume}
			if got := card.meta(); got != tt.want {
				t.Errorf("meta() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHomePageRenderStates(t *testing.T) {
	tests := []struct {
		name string
		page *HomePage
	}{
		{name: "Loading", page: &HomePage{loading: true}},
		{name: "Error", page: &HomePage{error: "Network error"}},
		{name: "Empty", page: &HomePage{}},
		{name: "File selected", page: &HomePage{selectedName: "resume.pdf", selectedSize: 4096}},
		{name: "With resumes", page: &HomePage{resumes: []Resume{
			{ID: "a", JobTitle: "Engineer", Feedback: sampleFeedback()},
			{ID: "b"},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.page.Render() == nil {
				t.Errorf("%s state should return non-nil UI", tt.name)
			}
		})
	}
}

func TestScoreBadgeRender(t *testing.T) {
	for _, score := range []int{0, 45, 65, 95} {
		badge := &ScoreBadge{Score: score}
		if badge.Render() == nil {
			t.Errorf("ScoreBadge(%d) should render", score)
		}
	}
}
