package internal

import "slices"

type Room struct {
	Name      string
	Admin     string
	Members   []string // join order; drives admin succession and drawer rotation
	Drawer    string   // empty when no round is being drawn
	Round     int
	MaxRounds int
	Pool      *QuestionPool
	Question  *Question
	Status    RoomStatus
	Answers   map[string]string
}

func NewRoom(name, creator string, maxRounds int) *Room {
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	return &Room{
		Name:      name,
		Admin:     creator,
		Members:   []string{creator},
		MaxRounds: maxRounds,
		Status:    StatusWaiting,
		Answers:   make(map[string]string),
	}
}

// Methods (Room Struct)
func (r *Room) HasMember(name string) bool {
	return slices.Contains(r.Members, name)
}

func (r *Room) AddMember(name string) {
	if r.HasMember(name) {
		return
	}
	r.Members = append(r.Members, name)
}

// RemoveMember drops name from the membership and hands the admin role to the
// earliest remaining member when needed.
func (r *Room) RemoveMember(name string) bool {
	idx := slices.Index(r.Members, name)
	if idx < 0 {
		return false
	}
	r.Members = slices.Delete(r.Members, idx, idx+1)
	delete(r.Answers, name)
	if r.Admin == name && len(r.Members) > 0 {
		r.Admin = r.Members[0]
	}
	if r.Drawer == name {
		r.Drawer = ""
	}
	return true
}

func (r *Room) IsEmpty() bool {
	return len(r.Members) == 0
}

func (r *Room) CurrentDrawer() (string, bool) {
	return r.Drawer, r.Drawer != ""
}

// ClearRound forgets the drawer and the question of the current round.
func (r *Room) ClearRound() {
	r.Drawer = ""
	r.Question = nil
}

func (r *Room) ResetAnswers() {
	r.Answers = make(map[string]string)
}

func (r *Room) SubmitAnswer(name, answer string) {
	if r.Answers == nil {
		r.Answers = make(map[string]string)
	}
	r.Answers[name] = answer
}
