// Package notify renders the plain-text emails sent to restaurant owners and
// readers, and hands them to a Mailer.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/dcfoodblog/backend/internal/catalog"
)

// DigestSize is how many recommendations a weekly digest lists
const DigestSize = 5

const siteName = "DC Food Blog"

// Message is a rendered email
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Mailer delivers messages
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// VerificationEmail carries a restaurant ownership code
func VerificationEmail(to string, restaurant catalog.Restaurant, code string) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", restaurant.Name)
	b.WriteString("Please use the following code to verify your restaurant ownership:\n\n")
	fmt.Fprintf(&b, "    %s\n\n", code)
	b.WriteString("This code will expire in 24 hours.\n")
	b.WriteString("If you didn't request this verification, please ignore this email.\n\n")
	fmt.Fprintf(&b, "Best regards,\n%s Team\n", siteName)

	return Message{
		To:      to,
		Subject: "Verify Your Restaurant on " + siteName,
		Body:    b.String(),
	}
}

// NewReviewNotification tells an owner that a review of their restaurant was posted
func NewReviewNotification(to string, review catalog.Review, restaurant catalog.Restaurant) Message {
	rating := catalog.UndeterminedLabel
	if v, ok := review.Rating.Value(); ok {
		rating = fmt.Sprintf("%g/100", v)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "A new review has been posted for %s:\n\n", restaurant.Name)
	fmt.Fprintf(&b, "%q\n", review.Title)
	fmt.Fprintf(&b, "Rating: %s\n\n", rating)
	fmt.Fprintf(&b, "View the full review on %s.\n", siteName)

	return Message{
		To:      to,
		Subject: "New Review: " + restaurant.Name,
		Body:    b.String(),
	}
}

// WeeklyDigest lists up to DigestSize recommended restaurants in the given order
func WeeklyDigest(user catalog.UserProfile, recommendations []catalog.Restaurant) Message {
	if len(recommendations) > DigestSize {
		recommendations = recommendations[:DigestSize]
	}

	name := user.Name
	if name == "" {
		name = "there"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", name)
	if len(recommendations) == 0 {
		b.WriteString("We don't have new recommendations for you this week.\n\n")
	} else {
		b.WriteString("Here are some restaurants we think you'll love:\n\n")
		for _, r := range recommendations {
			if len(r.CuisineTypes) > 0 {
				fmt.Fprintf(&b, "- %s (%s)\n", r.Name, strings.Join(r.CuisineTypes, ", "))
			} else {
				fmt.Fprintf(&b, "- %s\n", r.Name)
			}
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Visit %s to see more recommendations!\n", siteName)

	return Message{
		To:      user.Email,
		Subject: "Your Weekly " + siteName + " Digest",
		Body:    b.String(),
	}
}

// LogMailer writes messages to the log instead of delivering them
type LogMailer struct {
	logger *logrus.Entry
}

func NewLogMailer(logger *logrus.Entry) *LogMailer {
	return &LogMailer{logger: logger.WithField("component", "mailer")}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg.To == "" {
		return fmt.Errorf("send %q: missing recipient", msg.Subject)
	}
	m.logger.WithFields(logrus.Fields{
		"to":      msg.To,
		"subject": msg.Subject,
	}).Info("Email queued")
	m.logger.Debug(msg.Body)
	return nil
}
