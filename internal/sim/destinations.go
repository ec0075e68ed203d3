package sim

import "github.com/nuaibria/travelsync/internal/domain/travel"

// Destination is a place a journey can lead to.
type Destination struct {
	ID     string
	Name   string
	Miles  float64
	Danger travel.DangerLevel
}

// DefaultDestinations is the built-in world map.
var DefaultDestinations = []Destination{
	{ID: "ruins", Name: "Ancient Ruins", Miles: 10, Danger: 2},
	{ID: "millbrook", Name: "Millbrook Village", Miles: 4, Danger: 1},
	{ID: "thornwood", Name: "Thornwood Forest", Miles: 12, Danger: 3},
	{ID: "ashen-pass", Name: "Ashen Pass", Miles: 18, Danger: 4},
	{ID: "dragon-spire", Name: "Dragon's Spire", Miles: 30, Danger: 5},
}

type encounter struct {
	description string
	choices     []travel.Choice
}

// encounters are indexed by danger level minus one.
var encounters = [][]encounter{
	{
		{description: "A merchant caravan passes by, its drivers nodding in greeting."},
		{description: "Wildflowers line the road; a gentle breeze carries birdsong."},
	},
	{
		{description: "A rickety bridge spans a swollen creek."},
		{description: "You find the remains of an old campfire, still warm."},
	},
	{
		{description: "Wolves block the road ahead, hackles raised.", choices: []travel.Choice{
			{Label: "Fight", Description: "Draw your weapon and drive them off"},
			{Label: "Flee", Description: "Retreat and find another way around"},
		}},
		{description: "A hooded stranger demands a toll to pass.", choices: []travel.Choice{
			{Label: "Pay", Description: "Hand over a few coins"},
			{Label: "Refuse", Description: "Push past and hope for the best"},
		}},
	},
	{
		{description: "Bandits spring from the tree line!", choices: []travel.Choice{
			{Label: "Fight"},
			{Label: "Negotiate", Description: "Offer them something to let you pass"},
			{Label: "Flee"},
		}},
	},
	{
		{description: "A shadow sweeps over you as something vast circles overhead.", choices: []travel.Choice{
			{Label: "Hide", Description: "Take cover beneath the rocks"},
			{Label: "Run", Description: "Sprint for the next ridge"},
		}},
	},
}
