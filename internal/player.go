package internal

// Connection is the outbound half of a client transport. Send must not block
// the caller on network I/O.
type Connection interface {
	ID() string
	Send(msg any) error
	Close() error
}

type Participant struct {
	Name       string
	Conn       Connection // nil while offline
	PageStatus PageStatus
	Room       string // empty when not seated; the room registry is authoritative
	DrawFlag   bool   // has drawn during the current game
	Question   *Question
}

type ParticipantView struct {
	Username   string     `json:"username"`
	PageStatus PageStatus `json:"pageStatus"`
	RoomName   *string    `json:"room_name"`
	DrawFlag   bool       `json:"drawFlag"`
	Question   *Question  `json:"question"`
}

func NewParticipant(name string, conn Connection) *Participant {
	return &Participant{
		Name:       name,
		Conn:       conn,
		PageStatus: PageLobby,
	}
}

func (p *Participant) Online() bool {
	return p.Conn != nil
}

func (p *Participant) RoomName() (string, bool) {
	return p.Room, p.Room != ""
}

// Seat records room membership on the participant side.
func (p *Participant) Seat(room string, status PageStatus) {
	p.Room = room
	p.PageStatus = status
	p.ResetRoundState()
}

// Unseat returns the participant to the lobby.
func (p *Participant) Unseat() {
	p.Room = ""
	p.PageStatus = PageLobby
	p.ResetRoundState()
}

func (p *Participant) ResetRoundState() {
	p.DrawFlag = false
	p.Question = nil
}

func (p *Participant) View() ParticipantView {
	view := ParticipantView{
		Username:   p.Name,
		PageStatus: p.PageStatus,
		DrawFlag:   p.DrawFlag,
	}
	if name, ok := p.RoomName(); ok {
		view.RoomName = &name
	}
	if p.Question != nil {
		q := *p.Question
		view.Question = &q
	}
	return view
}

// SafeWriteJSON sends msg if the participant is online. Offline participants
// silently drop messages.
func (p *Participant) SafeWriteJSON(msg any) error {
	if p.Conn == nil {
		return nil
	}
	return p.Conn.Send(msg)
}
