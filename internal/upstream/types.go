package upstream

import "time"

// User is the remote API's user representation. The nested layout (health,
// goals, allergy, activate) and the capitalized ID key mirror the wire format
// exactly; the gateway never reshapes it.
type User struct {
	ID     uint   `json:"ID"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar,omitempty"`
	Age    uint   `json:"age"`
	Health Health `json:"health"`
	Goals  Goals  `json:"goals"`
}

// Health holds the user's physical attributes.
type Health struct {
	Weight   float64  `json:"weight"`
	Height   float64  `json:"height"`
	Sex      string   `json:"sex"`
	Allergy  Allergy  `json:"allergy"`
	Activate Activate `json:"activate"`
}

// Allergy records whether the user has allergies and which ones.
type Allergy struct {
	Allergy     bool     `json:"allergy"`
	AllergyType []string `json:"allergy_type"`
}

// Activate wraps the activity-level descriptor.
type Activate struct {
	ActivateType string `json:"activate_type"`
}

// Goals wraps the goal descriptor.
type Goals struct {
	GoalsType string `json:"goals_type"`
}

// DailyTarget is the server-computed nutrient goal for one day.
type DailyTarget struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"user_id"`
	Date      string    `json:"date"`
	Calories  float64   `json:"calories"`
	Protein   float64   `json:"protein"`
	Carbs     float64   `json:"carbs"`
	Fat       float64   `json:"fat"`
	Water     float64   `json:"water"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FoodEntry is a logged meal with its server-derived nutrient breakdown. The
// same shape carries the day's running totals in TargetStatus.Stat.
type FoodEntry struct {
	ID          uint      `json:"id"`
	UserID      uint      `json:"user_id"`
	Date        string    `json:"date"`
	Calories    float64   `json:"calories"`
	Protein     float64   `json:"protein"`
	Carbs       float64   `json:"carbs"`
	Fat         float64   `json:"fat"`
	Water       float64   `json:"water"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TargetStatus reports progress-to-date against the daily target.
type TargetStatus struct {
	Completed bool        `json:"completed"`
	Message   string      `json:"message"`
	Streak    int         `json:"streak"`
	Stat      FoodEntry   `json:"stat"`
	Target    DailyTarget `json:"target"`
}

// Challenge is a time-boxed competitive activity with a reward.
type Challenge struct {
	ID           uint      `json:"id"`
	Name         string    `json:"name"`
	Type         string    `json:"type"`
	Description  string    `json:"description"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	RewardPoints int       `json:"reward_points"`
}

// Participation is one user's enrollment and progress within a challenge.
type Participation struct {
	ID            uint    `json:"id"`
	UserID        uint    `json:"user_id"`
	ChallengeID   uint    `json:"challenge_id"`
	Progress      float64 `json:"progress"`
	Status        string  `json:"status"`
	Result        string  `json:"result"`
	AwardedPoints int     `json:"awarded_points"`
}

// Participant is a roster row: a participation joined with the user's name
// and a display-ready progress string.
type Participant struct {
	ID            uint    `json:"id"`
	UserID        uint    `json:"user_id"`
	ChallengeID   uint    `json:"challenge_id"`
	UserName      string  `json:"user_name"`
	Progress      float64 `json:"progress"`
	Status        string  `json:"status"`
	AwardedPoints int     `json:"awarded_points"`
	Result        string  `json:"result"`
}

// Partner is a catalog entry for a points-redeemable discount offer.
type Partner struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Logo        string `json:"logo"`
	Website     string `json:"website"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Address     string `json:"address"`
	DiscountMin int    `json:"discount_min"`
	DiscountMax int    `json:"discount_max"`
	PointsCost  int    `json:"points_cost"`
	IsActive    bool   `json:"is_active"`
	Category    string `json:"category"`
}

// PartnerUsage records one discount redemption.
type PartnerUsage struct {
	ID             uint       `json:"id"`
	Partner        Partner    `json:"partner"`
	PointsSpent    int        `json:"points_spent"`
	DiscountAmount int        `json:"discount_amount"`
	OrderAmount    float64    `json:"order_amount"`
	OrderDetails   string     `json:"order_details"`
	Status         string     `json:"status"`
	UsedAt         *time.Time `json:"used_at"`
	CreatedAt      time.Time  `json:"created_at"`
}

// AuthResponse is returned by the login, signup and Google login endpoints.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// SignupInput carries the full registration form.
type SignupInput struct {
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	Password     string   `json:"password"`
	Age          uint     `json:"age"`
	Weight       float64  `json:"weight"`
	Height       float64  `json:"height"`
	Sex          string   `json:"sex"`
	Allergy      bool     `json:"allergy"`
	AllergyType  []string `json:"allergy_type"`
	ActivateType string   `json:"activate_type"`
	GoalsType    string   `json:"goals_type"`
}

// UserUpdate is the partial-update payload for PUT /users/{id}. Only fields
// that changed are set; absent fields are left untouched server-side.
type UserUpdate struct {
	Name     *string       `json:"name,omitempty"`
	Age      *uint         `json:"age,omitempty"`
	Password *string       `json:"password,omitempty"`
	Health   *HealthUpdate `json:"health,omitempty"`
	Goals    *GoalsUpdate  `json:"goals,omitempty"`
}

// HealthUpdate mirrors the nested health section of UserUpdate.
type HealthUpdate struct {
	Weight   *float64        `json:"weight,omitempty"`
	Height   *float64        `json:"height,omitempty"`
	Sex      *string         `json:"sex,omitempty"`
	Allergy  *AllergyUpdate  `json:"allergy,omitempty"`
	Activate *ActivateUpdate `json:"activate,omitempty"`
}

// AllergyUpdate mirrors the nested allergy section of HealthUpdate.
type AllergyUpdate struct {
	Allergy     *bool     `json:"allergy,omitempty"`
	AllergyType *[]string `json:"allergy_type,omitempty"`
}

// ActivateUpdate mirrors the nested activity section of HealthUpdate.
type ActivateUpdate struct {
	ActivateType *string `json:"activate_type,omitempty"`
}

// GoalsUpdate mirrors the goals section of UserUpdate.
type GoalsUpdate struct {
	GoalsType *string `json:"goals_type,omitempty"`
}

// IsEmpty reports whether the update would change nothing.
func (u UserUpdate) IsEmpty() bool {
	return u.Name == nil && u.Age == nil && u.Password == nil && u.Health == nil && u.Goals == nil
}

// FoodLogResult is returned after logging a meal.
type FoodLogResult struct {
	Stat        FoodEntry `json:"stat"`
	Completed   bool      `json:"completed"`
	Message     string    `json:"message"`
	HealthScore int       `json:"health_score"`
}

// DiscountRequest asks the remote service to apply a partner discount.
type DiscountRequest struct {
	PartnerID    uint    `json:"partner_id"`
	OrderAmount  float64 `json:"order_amount"`
	OrderDetails string  `json:"order_details"`
}

// DiscountResult confirms a redemption.
type DiscountResult struct {
	Message         string  `json:"message"`
	DiscountAmount  int     `json:"discount_amount"`
	PointsSpent     int     `json:"points_spent"`
	RemainingPoints int     `json:"remaining_points"`
	Partner         Partner `json:"partner"`
}
