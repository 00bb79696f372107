package resolver

import "time"

// Type enumerates the entity kinds the resolver can assemble. The string
// value doubles as the cache key prefix.
type Type string

const (
	TypeProfile       Type = "profile"
	TypeTeam          Type = "team"
	TypeCohort        Type = "cohort"
	TypeInstitution   Type = "institution"
	TypeProgram       Type = "program"
	TypeParticipation Type = "participation"
	TypePartnership   Type = "partnership"
	TypeSubmission    Type = "submission"
	TypeMilestone     Type = "milestone"
	TypeEducation     Type = "education"
)

// defaultTTLs tunes cache lifetime per entity volatility: participation and
// submissions churn constantly, institutions are near-static.
var defaultTTLs = map[Type]time.Duration{
	TypeProfile:       10 * time.Minute,
	TypeTeam:          10 * time.Minute,
	TypeCohort:        1 * time.Hour,
	TypeInstitution:   24 * time.Hour,
	TypeProgram:       6 * time.Hour,
	TypeParticipation: 5 * time.Minute,
	TypePartnership:   6 * time.Hour,
	TypeSubmission:    5 * time.Minute,
	TypeMilestone:     1 * time.Hour,
	TypeEducation:     1 * time.Hour,
}

// DefaultTTL returns the default cache lifetime for a type.
func DefaultTTL(t Type) time.Duration {
	if ttl, ok := defaultTTLs[t]; ok {
		return ttl
	}
	return 10 * time.Minute
}

// Valid reports whether t is a known entity type.
func (t Type) Valid() bool {
	_, ok := defaultTTLs[t]
	return ok
}

// Discovery paths for relations that can be reached more than one way.
const (
	SourceDirect      = "direct"
	SourcePartnership = "partnership"
)

// Views are immutable once assembled: a fresh fetch always builds a new
// object graph, and cached views must never be mutated in place.

// Contact is the denormalized profile view.
type Contact struct {
	ID               string     `json:"id"`
	Email            string     `json:"email,omitempty"`
	FirstName        string     `json:"firstName,omitempty"`
	LastName         string     `json:"lastName,omitempty"`
	EducationID      string     `json:"educationId,omitempty"`
	Education        *Education `json:"education,omitempty"`
	ParticipationIDs []string   `json:"participationIds,omitempty"`
}

// Education is a contact's education record.
type Education struct {
	ID              string `json:"id"`
	InstitutionID   string `json:"institutionId,omitempty"`
	InstitutionName string `json:"institutionName,omitempty"`
	DegreeType      string `json:"degreeType,omitempty"`
	Major           string `json:"major,omitempty"`
	GraduationYear  string `json:"graduationYear,omitempty"`
}

// Cohort is a program cohort. CurrentFlag is the store's explicit marker; it
// wins over the date-range check when both are present.
type Cohort struct {
	ID               string     `json:"id"`
	ShortName        string     `json:"shortName,omitempty"`
	Status           string     `json:"status,omitempty"`
	InitiativeID     string     `json:"initiativeId,omitempty"`
	InitiativeName   string     `json:"initiativeName,omitempty"`
	TopicNames       []string   `json:"topicNames,omitempty"`
	ClassNames       []string   `json:"classNames,omitempty"`
	StartDate        *time.Time `json:"startDate,omitempty"`
	EndDate          *time.Time `json:"endDate,omitempty"`
	CurrentFlag      *bool      `json:"currentFlag,omitempty"`
	IsCurrent        bool       `json:"isCurrent"`
	Source           string     `json:"source,omitempty"`
	IsFallbackRecord bool       `json:"isFallbackRecord,omitempty"`
}

// Institution is a partner school or organization.
type Institution struct {
	ID             string   `json:"id"`
	Name           string   `json:"name,omitempty"`
	Domains        []string `json:"domains,omitempty"`
	CohortIDs      []string `json:"cohortIds,omitempty"`
	PartnershipIDs []string `json:"partnershipIds,omitempty"`
}

// Program is an initiative that cohorts belong to.
type Program struct {
	ID          string   `json:"id"`
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	Status      string   `json:"status,omitempty"`
	CohortIDs   []string `json:"cohortIds,omitempty"`
}

// Participation links a contact to a cohort. When the cohort link cannot be
// resolved but an initiative link exists, Cohort holds a synthesized
// placeholder marked IsFallbackRecord.
type Participation struct {
	ID           string   `json:"id"`
	ContactID    string   `json:"contactId,omitempty"`
	Status       string   `json:"status,omitempty"`
	CohortID     string   `json:"cohortId,omitempty"`
	Cohort       *Cohort  `json:"cohort,omitempty"`
	InitiativeID string   `json:"initiativeId,omitempty"`
	TeamIDs      []string `json:"teamIds,omitempty"`
}

// Team is a project team with its member roster.
type Team struct {
	ID          string       `json:"id"`
	Name        string       `json:"name,omitempty"`
	Description string       `json:"description,omitempty"`
	CohortIDs   []string     `json:"cohortIds,omitempty"`
	Members     []TeamMember `json:"members,omitempty"`
}

// TeamMember is one row of a team roster.
type TeamMember struct {
	ID        string `json:"id"`
	ContactID string `json:"contactId,omitempty"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	Status    string `json:"status,omitempty"`
}

// Partnership is the linking table relating an institution to an initiative
// and the cohorts it runs.
type Partnership struct {
	ID            string   `json:"id"`
	InstitutionID string   `json:"institutionId,omitempty"`
	InitiativeID  string   `json:"initiativeId,omitempty"`
	CohortIDs     []string `json:"cohortIds,omitempty"`
}

// Submission is a team's milestone deliverable.
type Submission struct {
	ID          string     `json:"id"`
	TeamID      string     `json:"teamId,omitempty"`
	MilestoneID string     `json:"milestoneId,omitempty"`
	Link        string     `json:"link,omitempty"`
	Comments    string     `json:"comments,omitempty"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
}

// Milestone is a cohort deliverable checkpoint.
type Milestone struct {
	ID       string     `json:"id"`
	Name     string     `json:"name,omitempty"`
	Status   string     `json:"status,omitempty"`
	Number   float64    `json:"number,omitempty"`
	DueDate  *time.Time `json:"dueDate,omitempty"`
	CohortID string     `json:"cohortId,omitempty"`
}

// cohortIsCurrent applies the currency rule: the explicit flag wins when set,
// otherwise today must fall inside the start/end range.
func cohortIsCurrent(flag *bool, start, end *time.Time, now time.Time) bool {
	if flag != nil {
		return *flag
	}
	if start == nil || end == nil {
		return false
	}
	return !now.Before(*start) && !now.After(*end)
}
