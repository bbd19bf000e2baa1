// GreenRec - Sustainability-Scored Recipe Recommendation Study
// Copyright 2026 GreenRec contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/greenrec/greenrec

package database

import (
	"context"
	"errors"
	"testing"

	"github.com/greenrec/greenrec/internal/config"
	"github.com/greenrec/greenrec/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(&config.DatabaseConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestCreateUserAndLookup(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	u, err := db.CreateUser(ctx, "anna", "hash", models.GroupB)
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if u.ID <= 0 {
		t.Errorf("expected positive user id, got %d", u.ID)
	}
	if u.Group != models.GroupB {
		t.Errorf("group = %v, want B", u.Group)
	}

	byName, err := db.GetUserByUsername(ctx, "anna")
	if err != nil {
		t.Fatalf("GetUserByUsername failed: %v", err)
	}
	if byName.ID != u.ID || byName.PasswordHash != "hash" {
		t.Errorf("lookup mismatch: %+v", byName)
	}

	byID, err := db.GetUserByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetUserByID failed: %v", err)
	}
	if byID.Username != "anna" {
		t.Errorf("username = %q, want anna", byID.Username)
	}

	// Round state must exist at round 1 right after creation.
	rs, err := db.GetRoundState(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetRoundState failed: %v", err)
	}
	if rs.Round != 1 || rs.Completed {
		t.Errorf("initial round state = %+v, want round 1, not completed", rs)
	}
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if _, err := db.CreateUser(ctx, "bela", "h1", models.GroupA); err != nil {
		t.Fatal(err)
	}
	_, err := db.CreateUser(ctx, "bela", "h2", models.GroupC)
	if !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestGetUserNotFound(t *testing.T) {
	db := testDB(t)

	if _, err := db.GetUserByUsername(context.Background(), "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := db.GetUserByID(context.Background(), 999); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestGroupCounts(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	counts, err := db.GroupCounts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, g := range models.Groups() {
		if counts[g] != 0 {
			t.Errorf("empty store should have zero counts, got %v", counts)
		}
	}

	for i, g := range []models.ExperimentGroup{models.GroupA, models.GroupA, models.GroupC} {
		if _, err := db.CreateUser(ctx, string(rune('a'+i)), "h", g); err != nil {
			t.Fatal(err)
		}
	}

	counts, err = db.GroupCounts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if counts[models.GroupA] != 2 || counts[models.GroupB] != 0 || counts[models.GroupC] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}
}

func TestUpsertRatingIdempotent(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	u, err := db.CreateUser(ctx, "cili", "h", models.GroupA)
	if err != nil {
		t.Fatal(err)
	}

	if err := db.UpsertRating(ctx, models.Rating{UserID: u.ID, RecipeID: 10, Round: 1, Rating: 2}); err != nil {
		t.Fatal(err)
	}
	// Re-rating the same recipe in the same round overwrites.
	if err := db.UpsertRating(ctx, models.Rating{UserID: u.ID, RecipeID: 10, Round: 1, Rating: 5}); err != nil {
		t.Fatal(err)
	}

	count, err := db.CountRatings(ctx, u.ID, 1)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("rated count = %d, want 1 (overwrite, not accumulate)", count)
	}

	ratings, err := db.GetUserRatings(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(ratings) != 1 || ratings[0].Rating != 5 {
		t.Errorf("stored rating should equal the last submitted value, got %+v", ratings)
	}
}

func TestAdvanceRoundAndCompletion(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	u, err := db.CreateUser(ctx, "dora", "h", models.GroupB)
	if err != nil {
		t.Fatal(err)
	}

	const maxRounds = 3
	rs, err := db.AdvanceRound(ctx, u.ID, maxRounds)
	if err != nil {
		t.Fatal(err)
	}
	if rs.Round != 2 || rs.Completed {
		t.Errorf("after first advance: %+v", rs)
	}

	if rs, err = db.AdvanceRound(ctx, u.ID, maxRounds); err != nil || rs.Round != 3 {
		t.Fatalf("after second advance: %+v, err %v", rs, err)
	}

	rs, err = db.AdvanceRound(ctx, u.ID, maxRounds)
	if err != nil {
		t.Fatal(err)
	}
	if !rs.Completed || rs.Round != 3 {
		t.Errorf("advancing past the last round should complete the study: %+v", rs)
	}

	// Advancing a completed study is a no-op.
	rs2, err := db.AdvanceRound(ctx, u.ID, maxRounds)
	if err != nil {
		t.Fatal(err)
	}
	if rs2 != rs {
		t.Errorf("advance on completed study changed state: %+v", rs2)
	}

	completed, err := db.CompletedUserCount(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if completed != 1 {
		t.Errorf("completed count = %d, want 1", completed)
	}
}

func TestShownRecipesAccumulate(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	u, err := db.CreateUser(ctx, "emil", "h", models.GroupC)
	if err != nil {
		t.Fatal(err)
	}

	if err := db.MarkShown(ctx, u.ID, 1, []int{3, 1, 2}); err != nil {
		t.Fatal(err)
	}
	if err := db.MarkShown(ctx, u.ID, 2, []int{4, 2}); err != nil {
		t.Fatal(err)
	}

	all, err := db.ShownRecipes(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{1, 2, 3, 4}
	if len(all) != len(want) {
		t.Fatalf("shown = %v, want %v", all, want)
	}
	for i := range want {
		if all[i] != want[i] {
			t.Errorf("shown[%d] = %d, want %d", i, all[i], want[i])
		}
	}

	batch, err := db.ShownInRound(ctx, u.ID, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(batch) != 3 {
		t.Errorf("round 1 batch = %v, want 3 recipes", batch)
	}
}

func TestChoicesAppendOnly(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	u, err := db.CreateUser(ctx, "fanni", "h", models.GroupA)
	if err != nil {
		t.Fatal(err)
	}

	c1, err := db.InsertChoice(ctx, models.Choice{UserID: u.ID, RecipeID: 7})
	if err != nil {
		t.Fatal(err)
	}
	if c1.ID == "" {
		t.Error("choice should receive a generated ID")
	}
	if _, err := db.InsertChoice(ctx, models.Choice{UserID: u.ID, RecipeID: 7}); err != nil {
		t.Fatalf("repeated choices must append, not conflict: %v", err)
	}

	choices, err := db.ListChoices(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(choices) != 2 {
		t.Errorf("got %d choices, want 2", len(choices))
	}
}

func TestGroupStatsShapeAndValues(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	ua, _ := db.CreateUser(ctx, "g1", "h", models.GroupA)
	ub, _ := db.CreateUser(ctx, "g2", "h", models.GroupB)
	if ua == nil || ub == nil {
		t.Fatal("user creation failed")
	}
	_ = db.UpsertRating(ctx, models.Rating{UserID: ua.ID, RecipeID: 1, Round: 1, Rating: 4})
	_ = db.UpsertRating(ctx, models.Rating{UserID: ua.ID, RecipeID: 2, Round: 1, Rating: 2})
	if _, err := db.InsertChoice(ctx, models.Choice{UserID: ub.ID, RecipeID: 1}); err != nil {
		t.Fatal(err)
	}

	stats, err := db.GetGroupStats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(stats) != 3 {
		t.Fatalf("stats should cover all three arms, got %d", len(stats))
	}

	var a, b GroupStats
	for _, gs := range stats {
		switch gs.Group {
		case models.GroupA:
			a = gs
		case models.GroupB:
			b = gs
		}
	}
	if a.Users != 1 || a.Ratings != 2 || a.AvgRating != 3.0 {
		t.Errorf("group A stats = %+v", a)
	}
	if b.Users != 1 || b.Choices != 1 {
		t.Errorf("group B stats = %+v", b)
	}

	byRound, err := db.RatingsByRound(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if byRound[1] != 2 {
		t.Errorf("ratings in round 1 = %d, want 2", byRound[1])
	}
}
