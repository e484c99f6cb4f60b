package domain

import "time"

type OptionID string

const (
	OptionA OptionID = "A"
	OptionB OptionID = "B"
	OptionC OptionID = "C"
)

func (o OptionID) Valid() bool {
	return o == OptionA || o == OptionB || o == OptionC
}

type Participant string

const (
	ParticipantOne Participant = "p1"
	ParticipantTwo Participant = "p2"
)

func (p Participant) Valid() bool {
	return p == ParticipantOne || p == ParticipantTwo
}

// Other returns the opposite role of the two-participant pair.
func (p Participant) Other() Participant {
	if p == ParticipantOne {
		return ParticipantTwo
	}
	return ParticipantOne
}

type RoundStatus string

const (
	RoundPending   RoundStatus = "pending"
	RoundCompleted RoundStatus = "completed"
)

// Round is one calendar day's question/answer/scoring cycle, keyed by the
// game date. The question text and options are snapshotted at creation so
// later catalog edits do not alter past rounds.
type Round struct {
	DateID       string      `json:"date_id"`
	DayNumber    int         `json:"day_number"`
	QuestionID   int         `json:"question_id"`
	QuestionText string      `json:"question_text"`
	Options      []Option    `json:"options"`
	P1Answer     *OptionID   `json:"p1_answer"`
	P1Guess      *OptionID   `json:"p1_guess"`
	P1Status     bool        `json:"p1_status"`
	P2Answer     *OptionID   `json:"p2_answer"`
	P2Guess      *OptionID   `json:"p2_guess"`
	P2Status     bool        `json:"p2_status"`
	PointsEarned int         `json:"points_earned"`
	Status       RoundStatus `json:"status"`
	CreatedAt    time.Time   `json:"created_at"`
	CompletedAt  *time.Time  `json:"completed_at,omitempty"`
}

func (r *Round) Submitted(p Participant) bool {
	if p == ParticipantOne {
		return r.P1Status
	}
	return r.P2Status
}

func (r *Round) Answer(p Participant) *OptionID {
	if p == ParticipantOne {
		return r.P1Answer
	}
	return r.P2Answer
}

func (r *Round) Guess(p Participant) *OptionID {
	if p == ParticipantOne {
		return r.P1Guess
	}
	return r.P2Guess
}

// SetSubmission records a participant's answer and guess and flips their
// submitted flag. Answer and guess fields are write-once; callers must check
// Submitted first.
func (r *Round) SetSubmission(p Participant, answer, guess OptionID) {
	if p == ParticipantOne {
		r.P1Answer, r.P1Guess, r.P1Status = &answer, &guess, true
		return
	}
	r.P2Answer, r.P2Guess, r.P2Status = &answer, &guess, true
}

// Score computes points for a round where both participants have submitted.
// Each side is correct when their guess matches the other side's answer, so
// the result does not depend on submission order.
func (r *Round) Score() int {
	p1Correct := r.P1Guess != nil && r.P2Answer != nil && *r.P1Guess == *r.P2Answer
	p2Correct := r.P2Guess != nil && r.P1Answer != nil && *r.P2Guess == *r.P1Answer

	switch {
	case p1Correct && p2Correct:
		return 2
	case p1Correct || p2Correct:
		return 1
	default:
		return 0
	}
}
