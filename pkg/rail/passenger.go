package rail

import "fmt"

type PNRStatus string

const (
	PNRStatusConfirmed  PNRStatus = "CNF"
	PNRStatusRAC        PNRStatus = "RAC"
	PNRStatusWaitlisted PNRStatus = "WL"
)

type PassengerStatus string

const (
	PassengerStatusOnline  PassengerStatus = "online"
	PassengerStatusOffline PassengerStatus = "offline"
)

type Passenger struct {
	PNR    string `groups:"basic" bson:"pnr" csv:"pnr"`
	Name   string `groups:"basic" bson:"name" csv:"name"`
	Age    int    `groups:"detailed" bson:"age" csv:"age"`
	Gender string `groups:"detailed" bson:"gender" csv:"gender"`

	PNRStatus PNRStatus `groups:"basic" bson:"pnrstatus" csv:"pnr_status"`
	RACNumber int       `groups:"basic" bson:"racnumber" csv:"rac_number"`
	WLNumber  int       `groups:"basic" bson:"wlnumber" csv:"wl_number"`

	FromIdx int        `groups:"basic" bson:"fromidx" csv:"from_idx"`
	ToIdx   int        `groups:"basic" bson:"toidx" csv:"to_idx"`
	Class   CoachClass `groups:"basic" bson:"class" csv:"class"`
	CoachNo string     `groups:"basic" bson:"coachno" csv:"coach_no"`
	BerthNo int        `groups:"basic" bson:"berthno" csv:"berth_no"`

	Boarded   bool `groups:"basic" bson:"boarded" csv:"boarded"`
	NoShow    bool `groups:"basic" bson:"noshow" csv:"no_show"`
	Deboarded bool `groups:"basic" bson:"deboarded" csv:"-"`
	Upgraded  bool `groups:"basic" bson:"upgraded" csv:"-"`

	PassengerStatus PassengerStatus `groups:"detailed" bson:"passengerstatus" csv:"passenger_status"`
	GroupID         string          `groups:"detailed" bson:"groupid" csv:"group_id"`

	// BoardingSeq is the insertion order used to break RAC number ties
	BoardingSeq int `groups:"detailed" bson:"boardingseq" csv:"-"`
}

func (p *Passenger) IsOnline() bool {
	return p.PassengerStatus == PassengerStatusOnline
}

func (p *Passenger) RACStatus() string {
	if p.PNRStatus != PNRStatusRAC {
		return "-"
	}
	return fmt.Sprintf("RAC-%d", p.RACNumber)
}

func (p *Passenger) HasBerth() bool {
	return p.CoachNo != "" && p.BerthNo > 0
}

func (p *Passenger) BerthLabel() string {
	if !p.HasBerth() {
		return ""
	}
	return BerthLabel(p.CoachNo, p.BerthNo)
}

// SegmentRole is the role a passenger's booking holds on its berth
func (p *Passenger) SegmentRole() SegmentRole {
	if p.PNRStatus == PNRStatusRAC {
		return SegmentRoleRACShared
	}
	return SegmentRoleConfirmed
}

// Travelling reports whether the passenger still holds a claim on their berth
func (p *Passenger) Travelling() bool {
	return !p.NoShow && !p.Deboarded
}

// Booking is the sealed set of ticket variants a passenger can hold
type Booking interface {
	isBooking()
	Status() PNRStatus
}

type Confirmed struct {
	CoachNo string
	BerthNo int
}

type RACBooking struct {
	Number  int
	CoachNo string
	BerthNo int
}

type Waitlisted struct {
	Number int
}

func (Confirmed) isBooking()  {}
func (RACBooking) isBooking() {}
func (Waitlisted) isBooking() {}

func (Confirmed) Status() PNRStatus  { return PNRStatusConfirmed }
func (RACBooking) Status() PNRStatus { return PNRStatusRAC }
func (Waitlisted) Status() PNRStatus { return PNRStatusWaitlisted }

// Booking returns the tagged variant for the passenger's PNR status
func (p *Passenger) Booking() (Booking, error) {
	switch p.PNRStatus {
	case PNRStatusConfirmed:
		return Confirmed{CoachNo: p.CoachNo, BerthNo: p.BerthNo}, nil
	case PNRStatusRAC:
		return RACBooking{Number: p.RACNumber, CoachNo: p.CoachNo, BerthNo: p.BerthNo}, nil
	case PNRStatusWaitlisted:
		return Waitlisted{Number: p.WLNumber}, nil
	default:
		return nil, NewValidationError("unknown PNR status %q for %s", p.PNRStatus, p.PNR)
	}
}

// DisplayStatus renders the booking the way it is shown on a chart
func DisplayStatus(b Booking) string {
	switch booking := b.(type) {
	case Confirmed:
		if booking.CoachNo == "" {
			return "CNF"
		}
		return fmt.Sprintf("CNF %s", BerthLabel(booking.CoachNo, booking.BerthNo))
	case RACBooking:
		if booking.CoachNo == "" {
			return fmt.Sprintf("RAC %d", booking.Number)
		}
		return fmt.Sprintf("RAC %d %s", booking.Number, BerthLabel(booking.CoachNo, booking.BerthNo))
	case Waitlisted:
		return fmt.Sprintf("WL %d", booking.Number)
	default:
		return "UNKNOWN"
	}
}
