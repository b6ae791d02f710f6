// Package profile holds the pure derivations over a user profile: the
// completeness gate, BMI, progress percentages and the partial-update diff.
// Keeping them here stops the per-view duplication the old client had.
package profile

import (
	"math"
	"reflect"

	"healthgate/internal/upstream"
)

// IsComplete reports whether every health and goal attribute is populated.
// The dashboard refuses to render and redirects to the completion flow until
// this holds.
func IsComplete(u upstream.User) bool {
	return u.Age > 0 &&
		u.Health.Weight > 0 &&
		u.Health.Height > 0 &&
		u.Health.Sex != "" &&
		u.Health.Activate.ActivateType != "" &&
		u.Goals.GoalsType != ""
}

// BMI computes weight(kg) / (height(cm)/100)^2 rounded to one decimal place.
// Returns 0 when either input is missing.
func BMI(weightKg, heightCm float64) float64 {
	if weightKg <= 0 || heightCm <= 0 {
		return 0
	}
	meters := heightCm / 100
	return math.Round(weightKg/(meters*meters)*10) / 10
}

// ProgressPercent returns consumed as a percentage of target, or 0 when the
// target is unset. Values above 100 are passed through; clamping is the
// rendering widget's concern.
func ProgressPercent(consumed, target float64) float64 {
	if target <= 0 {
		return 0
	}
	return consumed / target * 100
}

// FormInput is the profile-update form state, pre-filled from the cached
// profile. Password is only ever sent when the user typed a new one.
type FormInput struct {
	Name         string
	Age          uint
	Password     string
	Weight       float64
	Height       float64
	Sex          string
	Allergy      bool
	AllergyType  []string
	ActivateType string
	GoalsType    string
}

// FormFromUser pre-fills the form from the cached profile.
func FormFromUser(u upstream.User) FormInput {
	return FormInput{
		Name:         u.Name,
		Age:          u.Age,
		Weight:       u.Health.Weight,
		Height:       u.Health.Height,
		Sex:          u.Health.Sex,
		Allergy:      u.Health.Allergy.Allergy,
		AllergyType:  u.Health.Allergy.AllergyType,
		ActivateType: u.Health.Activate.ActivateType,
		GoalsType:    u.Goals.GoalsType,
	}
}

// Diff compares the submitted form against the cached profile and builds the
// partial-update payload containing only the changed fields. An unchanged
// form yields an empty update.
func Diff(original upstream.User, form FormInput) upstream.UserUpdate {
	var update upstream.UserUpdate

	if form.Name != original.Name {
		name := form.Name
		update.Name = &name
	}
	if form.Age != original.Age {
		age := form.Age
		update.Age = &age
	}
	if form.Password != "" {
		password := form.Password
		update.Password = &password
	}

	var health upstream.HealthUpdate
	changed := false

	if form.Weight != original.Health.Weight {
		weight := form.Weight
		health.Weight = &weight
		changed = true
	}
	if form.Height != original.Health.Height {
		height := form.Height
		health.Height = &height
		changed = true
	}
	if form.Sex != original.Health.Sex {
		sex := form.Sex
		health.Sex = &sex
		changed = true
	}
	if allergyChanged(original.Health.Allergy, form) {
		flag := form.Allergy
		types := form.AllergyType
		if types == nil {
			types = []string{}
		}
		health.Allergy = &upstream.AllergyUpdate{Allergy: &flag, AllergyType: &types}
		changed = true
	}
	if form.ActivateType != original.Health.Activate.ActivateType {
		activate := form.ActivateType
		health.Activate = &upstream.ActivateUpdate{ActivateType: &activate}
		changed = true
	}
	if changed {
		update.Health = &health
	}

	if form.GoalsType != original.Goals.GoalsType {
		goals := form.GoalsType
		update.Goals = &upstream.GoalsUpdate{GoalsType: &goals}
	}

	return update
}

func allergyChanged(original upstream.Allergy, form FormInput) bool {
	if form.Allergy != original.Allergy {
		return true
	}
	a, b := form.AllergyType, original.AllergyType
	if len(a) == 0 && len(b) == 0 {
		return false
	}
	return !reflect.DeepEqual(a, b)
}
