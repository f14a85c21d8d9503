package models

// ProjectStatus is the review state of a proofing project.
type ProjectStatus string

const (
	ProjectPending      ProjectStatus = "pending"
	ProjectReviewNeeded ProjectStatus = "review_needed"
	ProjectApproved     ProjectStatus = "approved"
	ProjectRejected     ProjectStatus = "rejected"
)

// ReviewStatus is the teacher verdict on a single version.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

// Version is one entry in a project's append-only history.
type Version struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Author       string       `json:"author"`
	Date         string       `json:"date"`
	Changes      string       `json:"changes"`
	IsActive     bool         `json:"is_active"`
	ReviewStatus ReviewStatus `json:"review_status"`
}

// Point is a comment anchor in percent of the canvas.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Comment is a user annotation or a system notice. System notices carry no position.
type Comment struct {
	ID         string   `json:"id"`
	AuthorID   string   `json:"author_id"`
	AuthorName string   `json:"author_name"`
	Role       UserRole `json:"role"`
	Text       string   `json:"text"`
	Timestamp  string   `json:"timestamp"`
	IsSystem   bool     `json:"is_system"`
	Position   *Point   `json:"position,omitempty"`
}

// Project is a proofing workspace document.
type Project struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Status         ProjectStatus   `json:"status"`
	LastModified   string          `json:"last_modified"`
	PreviewPath    string          `json:"-"`
	AnalysisResult *AnalysisResult `json:"analysis_result,omitempty"`
	Versions       []Version       `json:"versions"`
	Comments       []Comment       `json:"comments"`
	DisplayedScore *int            `json:"displayed_score,omitempty"`
}

// ActiveVersion returns the index of the active version or -1.
func (p *Project) ActiveVersion() int {
	for i := range p.Versions {
		if p.Versions[i].IsActive {
			return i
		}
	}
	return -1
}

// ProjectSummary is the list view of a project.
type ProjectSummary struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Status       ProjectStatus `json:"status"`
	LastModified string        `json:"last_modified"`
	Current      bool          `json:"current"`
}
