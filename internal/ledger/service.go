package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/zapponejosh/lunar-ledger/internal/database"
)

// Store is the slice of the database the service reads from.
// Both *database.DB and test fakes satisfy it.
type Store interface {
	AllContacts(ctx context.Context) ([]database.Contact, error)
}

// Service answers birthday questions about the contacts in a Store.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService creates a new birthday service.
func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// UpcomingBirthday pairs a contact with its next celebration.
type UpcomingBirthday struct {
	Contact    database.Contact `json:"contact"`
	Occurrence Occurrence       `json:"occurrence"`
}

// Upcoming returns contacts whose next birthday falls within windowDays of
// today (today included), soonest first and then by name. Contacts with a
// birthday that cannot be resolved are logged and skipped.
func (s *Service) Upcoming(ctx context.Context, today time.Time, windowDays int) ([]UpcomingBirthday, error) {
	if windowDays < 0 {
		return nil, fmt.Errorf("window must not be negative, got %d", windowDays)
	}

	contacts, err := s.store.AllContacts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load contacts: %w", err)
	}

	upcoming := []UpcomingBirthday{}
	for _, c := range contacts {
		occ, err := NextBirthday(today, FromContact(c))
		if err != nil {
			s.logger.Warn("skipping contact birthday",
				slog.Int64("contact_id", c.ID),
				slog.String("name", c.Name),
				slog.Any("error", err),
			)
			continue
		}
		if occ.DaysUntil > windowDays {
			continue
		}
		upcoming = append(upcoming, UpcomingBirthday{Contact: c, Occurrence: occ})
	}

	sort.SliceStable(upcoming, func(i, j int) bool {
		a, b := upcoming[i], upcoming[j]
		if a.Occurrence.DaysUntil != b.Occurrence.DaysUntil {
			return a.Occurrence.DaysUntil < b.Occurrence.DaysUntil
		}
		return a.Contact.Name < b.Contact.Name
	})

	s.logger.Debug("resolved upcoming birthdays",
		slog.Int("contacts", len(contacts)),
		slog.Int("upcoming", len(upcoming)),
		slog.Int("window_days", windowDays),
	)

	return upcoming, nil
}
