package service

import (
	"context"
	"testing"

	"portal/internal/model"
)

func TestIdeaVoteToggle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	author := createTestUser(t, db, "author")
	voter := createTestUser(t, db, "voter")

	svc := NewIdeaService(db)

	idea, err := svc.CreateIdea(ctx, author.ID.String(), CreateIdeaRequest{
		Title:       "Yemekhane menüsü uygulamada görünsün",
		Description: "Haftalık menü portal üzerinden yayınlansın",
	})
	if err != nil {
		t.Fatalf("create idea: %v", err)
	}
	if idea.Status != model.IdeaNew || idea.VoteCount != 0 {
		t.Fatalf("new idea: status=%s votes=%d", idea.Status, idea.VoteCount)
	}

	res, err := svc.ToggleVote(ctx, idea.ID, voter.ID.String())
	if err != nil {
		t.Fatalf("vote: %v", err)
	}
	if !res.Voted || res.VoteCount != 1 {
		t.Fatalf("after vote: voted=%v count=%d", res.Voted, res.VoteCount)
	}

	// Second toggle withdraws the vote
	res, err = svc.ToggleVote(ctx, idea.ID, voter.ID.String())
	if err != nil {
		t.Fatalf("unvote: %v", err)
	}
	if res.Voted || res.VoteCount != 0 {
		t.Fatalf("after unvote: voted=%v count=%d", res.Voted, res.VoteCount)
	}

	if _, err := svc.ToggleVote(ctx, idea.ID, voter.ID.String()); err != nil {
		t.Fatalf("revote: %v", err)
	}
	if _, err := svc.ToggleVote(ctx, idea.ID, author.ID.String()); err != nil {
		t.Fatalf("author vote: %v", err)
	}

	// The viewer only sees their own vote marked
	listed, err := svc.ListIdeas(ctx, voter.ID.String(), "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 1 || !listed[0].Voted || listed[0].VoteCount != 2 {
		t.Fatalf("listed: %+v", listed)
	}
	listedByOther, err := svc.ListIdeas(ctx, createTestUser(t, db, "bystander").ID.String(), "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if listedByOther[0].Voted {
		t.Fatal("bystander must not appear as having voted")
	}
}

func TestIdeaStatusAndDeletion(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	author := createTestUser(t, db, "author")
	other := createTestUser(t, db, "other")

	svc := NewIdeaService(db)
	idea, err := svc.CreateIdea(ctx, author.ID.String(), CreateIdeaRequest{
		Title:       "Vardiya değişimi takası",
		Description: "Çalışanlar kendi aralarında vardiya takası yapabilsin",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.UpdateIdeaStatus(ctx, idea.ID, model.IdeaAccepted)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if updated.Status != model.IdeaAccepted {
		t.Fatalf("status = %s", updated.Status)
	}

	accepted, err := svc.ListIdeas(ctx, author.ID.String(), model.IdeaAccepted)
	if err != nil {
		t.Fatalf("list accepted: %v", err)
	}
	if len(accepted) != 1 {
		t.Fatalf("accepted = %d", len(accepted))
	}

	// Only the author or an admin may delete
	if err := svc.DeleteIdea(ctx, idea.ID, other.ID.String(), false); err == nil {
		t.Fatal("expected deletion rejection for non-author")
	}
	if err := svc.DeleteIdea(ctx, idea.ID, other.ID.String(), true); err != nil {
		t.Fatalf("admin delete: %v", err)
	}

	remaining, err := svc.ListIdeas(ctx, author.ID.String(), "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("remaining ideas = %d", len(remaining))
	}
}
