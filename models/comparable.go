package models

import "time"

// Property is a subject property or a member of a comparables pool.
// Zero numeric values mean "unknown" except for coordinates, which are nil
// when unknown.
type Property struct {
	ID                string     `json:"id"`
	Lat               *float64   `json:"lat,omitempty"`
	Lon               *float64   `json:"lon,omitempty"`
	Area              float64    `json:"area"`
	Floor             float64    `json:"floor"`
	BuildingYear      int        `json:"buildingYear"`
	ConditionScore    float64    `json:"conditionScore"`
	PropertyType      string     `json:"propertyType"`
	Price             float64    `json:"price"`
	SaleDate          *time.Time `json:"saleDate,omitempty"`
	HasElevator       bool       `json:"hasElevator"`
	HasBalcony        bool       `json:"hasBalcony"`
	HasParking        bool       `json:"hasParking"`
	HasView           bool       `json:"hasView"`
	NoiseLevel        float64    `json:"noiseLevel"`
	PlanningPotential float64    `json:"planningPotential"`
}

// HasCoordinates reports whether both lat and lon are known.
func (p Property) HasCoordinates() bool {
	return p.Lat != nil && p.Lon != nil
}

// Adjustment is the set of named percentage corrections applied to a
// comparable's price, plus their clamped total.
type Adjustment struct {
	Floor        float64 `json:"floor"`
	Elevator     float64 `json:"elevator"`
	Renovation   float64 `json:"renovation"`
	Balcony      float64 `json:"balcony"`
	Parking      float64 `json:"parking"`
	View         float64 `json:"view"`
	Noise        float64 `json:"noise"`
	Size         float64 `json:"size"`
	Planning     float64 `json:"planning"`
	Interaction  float64 `json:"interaction"`
	TotalPercent float64 `json:"totalPercent"`
}

// Sum adds the ten components without clamping.
func (a Adjustment) Sum() float64 {
	return a.Floor + a.Elevator + a.Renovation + a.Balcony + a.Parking +
		a.View + a.Noise + a.Size + a.Planning + a.Interaction
}

// AdjustmentPatch names the components an override replaces. Nil fields are
// left unchanged.
type AdjustmentPatch struct {
	Floor       *float64 `json:"floor,omitempty"`
	Elevator    *float64 `json:"elevator,omitempty"`
	Renovation  *float64 `json:"renovation,omitempty"`
	Balcony     *float64 `json:"balcony,omitempty"`
	Parking     *float64 `json:"parking,omitempty"`
	View        *float64 `json:"view,omitempty"`
	Noise       *float64 `json:"noise,omitempty"`
	Size        *float64 `json:"size,omitempty"`
	Planning    *float64 `json:"planning,omitempty"`
	Interaction *float64 `json:"interaction,omitempty"`
}

// IsEmpty reports whether the patch sets no component.
func (p *AdjustmentPatch) IsEmpty() bool {
	if p == nil {
		return true
	}
	for _, f := range p.fields() {
		if f != nil {
			return false
		}
	}
	return true
}

// Fields returns the set components keyed by their JSON name.
func (p *AdjustmentPatch) Fields() map[string]float64 {
	out := make(map[string]float64)
	if p == nil {
		return out
	}
	names := []string{"floor", "elevator", "renovation", "balcony", "parking",
		"view", "noise", "size", "planning", "interaction"}
	for i, f := range p.fields() {
		if f != nil {
			out[names[i]] = *f
		}
	}
	return out
}

func (p *AdjustmentPatch) fields() []*float64 {
	return []*float64{p.Floor, p.Elevator, p.Renovation, p.Balcony, p.Parking,
		p.View, p.Noise, p.Size, p.Planning, p.Interaction}
}

// ComparableCandidate pairs one pool property with the subject.
type ComparableCandidate struct {
	CandidateID     string     `json:"candidateId"`
	Similarity      float64    `json:"similarity"`
	DistanceMeters  float64    `json:"distanceMeters"`
	DistanceKnown   bool       `json:"distanceKnown"`
	Adjustment      Adjustment `json:"adjustment"`
	AdjustedPrice   int64      `json:"adjustedPrice"`
	Weight          float64    `json:"weight"`
	Explanation     []string   `json:"explanation"`
	Overridden      bool       `json:"overridden,omitempty"`
	BasePrice       float64    `json:"-"`
	MonthsSinceSale float64    `json:"-"`
}

// ComparableRun is one ranked comparable search.
type ComparableRun struct {
	RunID       string                `json:"runId"`
	Subject     Property              `json:"subject"`
	Comparables []ComparableCandidate `json:"comparables"`
	RequestedBy string                `json:"requestedBy"`
	CreatedAt   time.Time             `json:"createdAt"`
}

// Clone returns a copy whose candidate slice can be modified freely.
func (r *ComparableRun) Clone() *ComparableRun {
	cp := *r
	cp.Comparables = make([]ComparableCandidate, len(r.Comparables))
	for i, c := range r.Comparables {
		c.Explanation = append([]string(nil), c.Explanation...)
		cp.Comparables[i] = c
	}
	return &cp
}

// FindCandidate returns the index of candidateID, or -1.
func (r *ComparableRun) FindCandidate(candidateID string) int {
	for i := range r.Comparables {
		if r.Comparables[i].CandidateID == candidateID {
			return i
		}
	}
	return -1
}
