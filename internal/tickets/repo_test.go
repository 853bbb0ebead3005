package tickets

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/calebmoran/printworks-backend/pkg/db/models"
	"github.com/calebmoran/printworks-backend/pkg/enums"
)

func mustCreateTestTicket(t *testing.T, repo Repository, customerID uuid.UUID, status enums.TicketStatus) *models.Ticket {
	t.Helper()
	ticket := &models.Ticket{
		CustomerID: customerID,
		Subject:    "die line does not match the template",
		Status:     status,
		Priority:   enums.TicketPriorityNormal,
	}
	if err := repo.Create(context.Background(), ticket); err != nil {
		t.Fatalf("create ticket: %v", err)
	}
	return ticket
}

func TestRepositoryTicketRoundTrip(t *testing.T) {
	conn := openTestDB(t)
	tx := conn.Begin()
	defer tx.Rollback()

	repo := NewRepository(tx)
	created := mustCreateTestTicket(t, repo, uuid.New(), enums.TicketStatusOpen)

	if err := repo.CreateMessage(context.Background(), &models.TicketMessage{
		TicketID:     created.ID,
		AuthorUserID: uuid.New(),
		Body:         "attached the original artwork for reference",
	}); err != nil {
		t.Fatalf("create message: %v", err)
	}

	found, err := repo.FindByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if len(found.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(found.Messages))
	}
}

func TestRepositoryListFilters(t *testing.T) {
	conn := openTestDB(t)
	tx := conn.Begin()
	defer tx.Rollback()

	repo := NewRepository(tx)
	customerID := uuid.New()
	mustCreateTestTicket(t, repo, customerID, enums.TicketStatusOpen)
	mustCreateTestTicket(t, repo, customerID, enums.TicketStatusResolved)
	mustCreateTestTicket(t, repo, uuid.New(), enums.TicketStatusOpen)

	open := enums.TicketStatusOpen
	listed, _, err := repo.List(context.Background(), ListTicketsQuery{
		CustomerID: &customerID,
		Status:     &open,
		Limit:      10,
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected 1 ticket, got %d", len(listed))
	}

	listed, next, err := repo.List(context.Background(), ListTicketsQuery{
		CustomerID: &customerID,
		Limit:      1,
	})
	if err != nil {
		t.Fatalf("list page: %v", err)
	}
	if len(listed) != 1 || next == nil {
		t.Fatalf("expected a next cursor, got %d tickets next=%v", len(listed), next)
	}

	rest, _, err := repo.List(context.Background(), ListTicketsQuery{
		CustomerID: &customerID,
		Limit:      1,
		Cursor:     next,
	})
	if err != nil {
		t.Fatalf("list second page: %v", err)
	}
	if len(rest) != 1 || rest[0].ID == listed[0].ID {
		t.Fatalf("pagination returned the same row")
	}
}
