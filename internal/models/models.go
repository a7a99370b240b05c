package models

import "time"

type TrainState string

const (
	StateOnTime  TrainState = "ON_TIME"
	StateDelayed TrainState = "DELAYED"
	StateArrived TrainState = "ARRIVED"
)

type StationStop struct {
	Name          string `json:"name"`
	Code          string `json:"code"`
	DepartureTime string `json:"departure_time"`
	Platform      string `json:"platform"`
}

type NextStop struct {
	Name        string  `json:"name"`
	Code        string  `json:"code"`
	ArrivalTime string  `json:"arrival_time"`
	DistanceKm  float64 `json:"distance_km"`
	Weather     string  `json:"weather"`
}

type PreviousStop struct {
	Name          string `json:"name"`
	Code          string `json:"code"`
	DepartureTime string `json:"departure_time"`
}

// TrainStatus is a point-in-time snapshot of a running train. A newer query
// replaces it; nothing mutates one after it is built.
type TrainStatus struct {
	TrainNo         string       `json:"train_no"`
	TrainName       string       `json:"train_name"`
	PNR             string       `json:"pnr"`
	CurrentStation  StationStop  `json:"current_station"`
	NextStation     NextStop     `json:"next_station"`
	PreviousStation PreviousStop `json:"previous_station"`
	CoachPosition   string       `json:"coach_position"`
	Status          TrainState   `json:"status"`
	DelayMinutes    int          `json:"delay_minutes"`
	CurrentSpeed    int          `json:"current_speed"` // km/h, 0..130
	Timestamp       time.Time    `json:"timestamp"`
}

type AuthProvider string

const (
	ProviderGoogle AuthProvider = "GOOGLE"
	ProviderEmail  AuthProvider = "EMAIL"
)

type UserProfile struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Email    string       `json:"email"`
	Avatar   string       `json:"avatar"`
	Provider AuthProvider `json:"provider"`
	Level    string       `json:"level"`
	Points   int          `json:"points"`
}

type FoodItem struct {
	ID              string  `json:"id" yaml:"id" validate:"required"`
	Name            string  `json:"name" yaml:"name" validate:"required"`
	Restaurant      string  `json:"restaurant" yaml:"restaurant" validate:"required"`
	Price           int     `json:"price" yaml:"price" validate:"gt=0"` // rupees
	PrepTimeMinutes int     `json:"prep_time_minutes" yaml:"prep_time_minutes" validate:"gte=0"`
	Rating          float64 `json:"rating" yaml:"rating" validate:"gte=0,lte=5"`
	Image           string  `json:"image" yaml:"image" validate:"omitempty,url"`
}

type OrderReceipt struct {
	OrderID    string     `json:"order_id"`
	Items      []FoodItem `json:"items"`
	Subtotal   int        `json:"total"`
	GST        int        `json:"gst"`
	FinalTotal int        `json:"final_total"`
	Station    string     `json:"station"`
	Coach      string     `json:"coach"`
	PaymentRef string     `json:"payment_ref,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
}

// OrderRecord is what gets written to the order store for each checkout.
// RecordID identifies the write itself; OrderID is the short passenger-facing
// code and is not unique.
type OrderRecord struct {
	OrderReceipt
	RecordID  string    `json:"record_id"`
	UserID    string    `json:"user_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type ServiceType string

const (
	ServiceCoolie     ServiceType = "COOLIE"
	ServiceWheelchair ServiceType = "WHEELCHAIR"
	ServiceCloakroom  ServiceType = "CLOAKROOM"
	ServiceMedical    ServiceType = "MEDICAL"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCompleted BookingStatus = "COMPLETED"
)

type ServiceBooking struct {
	ID        string        `json:"id"`
	Type      ServiceType   `json:"type"`
	Status    BookingStatus `json:"status"`
	Details   string        `json:"details"`
	Price     int           `json:"price"`
	CreatedAt time.Time     `json:"created_at"`
}

type UpdateType string

const (
	UpdateIssue UpdateType = "ISSUE"
	UpdateInfo  UpdateType = "INFO"
	UpdateCrowd UpdateType = "CROWD"
)

type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

// StationUpdate is a crowdsourced incident report.
type StationUpdate struct {
	ID        string     `json:"id"`
	Type      UpdateType `json:"type"`
	Severity  Severity   `json:"severity"`
	Text      string     `json:"text"`
	Upvotes   int        `json:"upvotes"`
	Timestamp time.Time  `json:"timestamp"`
	Location  string     `json:"location"`
	User      string     `json:"user,omitempty"`
	UserRank  string     `json:"user_rank,omitempty"`
}

type ChatRole string

const (
	RoleUser  ChatRole = "user"
	RoleModel ChatRole = "model"
)

type ChatMessage struct {
	ID   int64    `json:"id"`
	Role ChatRole `json:"role"`
	Text string   `json:"text"`
}

type LeaderboardUser struct {
	ID     string `json:"id" yaml:"id" validate:"required"`
	Name   string `json:"name" yaml:"name" validate:"required"`
	Points int    `json:"points" yaml:"points" validate:"gte=0"`
	Rank   string `json:"rank" yaml:"rank" validate:"oneof=Scout Guide Guardian Legend"`
	Helps  int    `json:"helps" yaml:"helps" validate:"gte=0"`
	Avatar string `json:"avatar" yaml:"avatar"`
}
