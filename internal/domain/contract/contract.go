package contract

// Contract is a delivery obligation with acceptance and fulfillment payments
type Contract struct {
	ID               string `json:"id"`
	FactionSymbol    string `json:"factionSymbol"`
	Type             string `json:"type"`
	Terms            Terms  `json:"terms"`
	Accepted         bool   `json:"accepted"`
	Fulfilled        bool   `json:"fulfilled"`
	DeadlineToAccept string `json:"deadlineToAccept,omitempty"`
}

type Terms struct {
	Deadline string    `json:"deadline"`
	Payment  Payment   `json:"payment"`
	Deliver  []Deliver `json:"deliver"`
}

type Payment struct {
	OnAccepted  int64 `json:"onAccepted"`
	OnFulfilled int64 `json:"onFulfilled"`
}

type Deliver struct {
	TradeSymbol       string `json:"tradeSymbol"`
	DestinationSymbol string `json:"destinationSymbol"`
	UnitsRequired     int    `json:"unitsRequired"`
	UnitsFulfilled    int    `json:"unitsFulfilled"`
}

// Remaining is the number of units still owed for this delivery line
func (d Deliver) Remaining() int {
	left := d.UnitsRequired - d.UnitsFulfilled
	if left < 0 {
		return 0
	}
	return left
}

// TotalPayment is what the contract pays over its lifetime
func (c *Contract) TotalPayment() int64 {
	return c.Terms.Payment.OnAccepted + c.Terms.Payment.OnFulfilled
}

// DeliveryFor returns the delivery line for a trade symbol
func (c *Contract) DeliveryFor(tradeSymbol string) (Deliver, bool) {
	for _, d := range c.Terms.Deliver {
		if d.TradeSymbol == tradeSymbol {
			return d, true
		}
	}
	return Deliver{}, false
}

// AgentUpdate is the agent excerpt returned alongside contract actions
type AgentUpdate struct {
	Symbol  string `json:"symbol"`
	Credits int64  `json:"credits"`
}

// ActionResult is returned by accept and fulfill
type ActionResult struct {
	Agent    AgentUpdate `json:"agent"`
	Contract Contract    `json:"contract"`
}

// DeliverResult is returned by deliver
type DeliverResult struct {
	Contract Contract `json:"contract"`
	Cargo    struct {
		Capacity int `json:"capacity"`
		Units    int `json:"units"`
	} `json:"cargo"`
}
