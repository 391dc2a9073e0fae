package domain

import "time"

// Ring is the priority tier assigned to a classified profile.
// Lower number means higher priority.
type Ring int

// the four-ring classification system
const (
	RingVakman   Ring = 1 // established business, >5 years, KvK registered
	RingZZP      Ring = 2 // growing freelancer, tech-savvy
	RingHobbyist Ring = 3 // part-timer or starter, possibly no KvK
	RingAcademy  Ring = 4 // internal staff, never produced by classification
)

// Name returns the display name of the ring
func (r Ring) Name() string {
	switch r {
	case RingVakman:
		return "Vakman"
	case RingZZP:
		return "ZZP'er"
	case RingHobbyist:
		return "Hobbyist"
	case RingAcademy:
		return "Academy"
	}
	return "Unknown"
}

// Marker returns the presentation marker of the ring
func (r Ring) Marker() string {
	switch r {
	case RingVakman:
		return "🔴"
	case RingZZP:
		return "🟠"
	case RingHobbyist:
		return "🟡"
	case RingAcademy:
		return "🔵"
	}
	return "⚪"
}

// Valid reports whether the ring is one of the four defined values
func (r Ring) Valid() bool {
	return r >= RingVakman && r <= RingAcademy
}

// DefaultChannel returns the outreach channel used for the ring when the
// caller supplies no override
func (r Ring) DefaultChannel() Channel {
	switch r {
	case RingVakman:
		return ChannelEmail // established businesses prefer email
	case RingZZP:
		return ChannelDM // tech-savvy freelancers prefer DM
	case RingHobbyist:
		return ChannelInvite // starters get an invite
	case RingAcademy:
		return ChannelEmail
	}
	return ChannelEmail
}

// Channel is the communication channel for an outreach message
type Channel string

// outreach channels, sms is defined but not selected automatically
const (
	ChannelEmail  Channel = "email"
	ChannelDM     Channel = "dm"
	ChannelSMS    Channel = "sms"
	ChannelInvite Channel = "invite"
)

// ScrapedContent is the raw result of fetching a single URL, immutable once
// produced by the scraper
type ScrapedContent struct {
	URL         string
	TextContent string
	SourceType  string
	Metadata    map[string]string
	ScrapedAt   time.Time
}

// Classification is the result of classifying scraped content into a ring.
// QualityScore is always within [0,10] and Confidence within [0,1].
type Classification struct {
	Ring            Ring
	QualityScore    float64
	Confidence      float64
	Reasoning       string
	ExtractedData   map[string]any
	RecommendedHook string
	ClassifiedAt    time.Time
}

// Clamp forces the score and confidence into their valid ranges
func (c *Classification) Clamp() {
	if c.QualityScore < 0 {
		c.QualityScore = 0
	}
	if c.QualityScore > 10 {
		c.QualityScore = 10
	}
	if c.Confidence < 0 {
		c.Confidence = 0
	}
	if c.Confidence > 1 {
		c.Confidence = 1
	}
}

// OutreachMessage is a generated, personalized outreach message
type OutreachMessage struct {
	ProfileID    int64
	Ring         Ring
	Channel      Channel
	TemplateType string
	Subject      string // empty for non-email channels
	Body         string
	Tokens       map[string]string
	GeneratedAt  time.Time
}

// Result is the per-URL outcome of a pipeline run. Results surface in
// completion order, so URL tags each outcome with its origin.
type Result struct {
	URL             string  `json:"url"`
	Success         bool    `json:"success"`
	ProfileID       int64   `json:"profile_id,omitempty"`
	Ring            Ring    `json:"ring,omitempty"`
	RingName        string  `json:"ring_name,omitempty"`
	QualityScore    float64 `json:"quality_score,omitempty"`
	OutreachChannel Channel `json:"outreach_channel,omitempty"`
	Error           string  `json:"error,omitempty"`
}

// Profile is a stored, classified tradesperson profile
type Profile struct {
	ID              int64
	SourceURL       string
	SourceType      string
	Name            string
	Location        string
	Specialization  []string
	Ring            Ring
	QualityScore    float64
	Confidence      float64
	Reasoning       string
	ExtractedData   map[string]any
	RecommendedHook string
	RawText         string
	OutreachSent    bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
