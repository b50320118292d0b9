package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"tripline-service/internal/domain/entity"
	"tripline-service/internal/usecase"
)

func TestPlannerHoldsCallbacksUntilConfirmLoaded(t *testing.T) {
	recorder := &callbackRecorder{}
	trips := newStubTrips()
	planner := newTestPlanner(t, []string{"Lisbon", "Porto"}, 7, func(params *usecase.PlannerParams) {
		params.Callbacks = recorder.callbacks()
		params.Trips = trips
	})

	if planner.Loaded() {
		t.Fatal("planner must start unloaded")
	}
	if a, d, dates := recorder.counts(); a != 0 || d != 0 || dates != 0 {
		t.Fatalf("callbacks fired before load confirmation: %d/%d/%d", a, d, dates)
	}

	// Mutations before the latch opens apply but stay local.
	if err := planner.SetNights(context.Background(), 1, 2); err != nil {
		t.Fatalf("set nights: %v", err)
	}
	if trips.saveCount() != 0 {
		t.Fatal("nothing may persist before load confirmation")
	}

	planner.ConfirmLoaded(context.Background(), nil)
	if !planner.Loaded() {
		t.Fatal("planner must report loaded")
	}
	a, d, dates := recorder.counts()
	if a != 1 || d != 1 || dates != 1 {
		t.Fatalf("expected one callback of each kind after load, got %d/%d/%d", a, d, dates)
	}

	if err := planner.SetNights(context.Background(), 1, 3); err != nil {
		t.Fatalf("set nights: %v", err)
	}
	if trips.saveCount() != 1 {
		t.Fatalf("expected 1 save after loaded mutation, got %d", trips.saveCount())
	}
}

func TestConfirmLoadedHydratesMatchingCitySet(t *testing.T) {
	planner := newTestPlanner(t, []string{"Lisbon", "Porto"}, 7, nil)

	persisted := allocate(t, []string{"Lisbon", "Porto"}, 6)
	persisted[1].Nights = 4
	persisted[2].Nights = 1
	usecase.RecalcDates(persisted, date(2025, 3, 1))
	days, err := testExpander(lisbonPortoOptions()).ExpandDays(context.Background(), persisted, "London", nil)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	days[1].Activities = append(days[1].Activities, mustStay(t, entity.ActivityAttraction, "Belem Tower"))

	planner.ConfirmLoaded(context.Background(), &entity.Trip{
		Window:      entity.TripWindow{StartDate: date(2025, 3, 1), TotalDays: 7},
		Allocations: persisted,
		Days:        days,
	})

	snap := planner.Snapshot()
	if snap.Allocations[1].Nights != 4 || snap.Allocations[2].Nights != 1 {
		t.Fatalf("persisted nights lost: %+v", snap.Allocations)
	}
	if snap.Days[1].Activities[len(snap.Days[1].Activities)-1].Name != "Belem Tower" {
		t.Fatal("persisted day content lost")
	}
}

func TestConfirmLoadedAdoptsPersistedCityOrder(t *testing.T) {
	planner := newTestPlanner(t, []string{"Lisbon", "Porto"}, 7, nil)

	// Same city set, opposite visit order.
	persisted := allocate(t, []string{"Porto", "Lisbon"}, 6)
	days, err := testExpander(lisbonPortoOptions()).ExpandDays(context.Background(), persisted, "London", nil)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	planner.ConfirmLoaded(context.Background(), &entity.Trip{
		Window:      entity.TripWindow{StartDate: date(2025, 3, 1), TotalDays: 7},
		Allocations: persisted,
		Days:        days,
	})

	snap := planner.Snapshot()
	if snap.Cities[0] != "Porto" || snap.Cities[1] != "Lisbon" {
		t.Fatalf("city list not synced to persisted order: %v", snap.Cities)
	}

	// Reorders after hydration must index the adopted order.
	if err := planner.MoveCity(context.Background(), 0, 1); err != nil {
		t.Fatalf("move city: %v", err)
	}
	snap = planner.Snapshot()
	if snap.Cities[0] != "Lisbon" || snap.Cities[1] != "Porto" {
		t.Fatalf("move after hydration misfired: %v", snap.Cities)
	}
	if snap.Allocations[1].City != "Lisbon" || snap.Allocations[1].Nights != 3 {
		t.Fatalf("Lisbon stay not moved with its nights: %+v", snap.Allocations[1])
	}
	if snap.Allocations[2].City != "Porto" || snap.Allocations[2].Nights != 2 {
		t.Fatalf("Porto stay not moved with its nights: %+v", snap.Allocations[2])
	}
}

func TestConfirmLoadedMismatchedCitiesIsCacheMiss(t *testing.T) {
	planner := newTestPlanner(t, []string{"Lisbon", "Porto"}, 7, nil)

	stale := allocate(t, []string{"Lisbon", "Madrid"}, 6)
	stale[1].Nights = 4
	stale[2].Nights = 1
	usecase.RecalcDates(stale, date(2025, 3, 1))

	planner.ConfirmLoaded(context.Background(), &entity.Trip{
		Window:      entity.TripWindow{StartDate: date(2025, 3, 1), TotalDays: 7},
		Allocations: stale,
	})

	snap := planner.Snapshot()
	if snap.Allocations[1].City != "Lisbon" || snap.Allocations[1].Nights != 3 {
		t.Fatalf("expected computed defaults after city mismatch, got %+v", snap.Allocations)
	}
	if snap.Allocations[2].City != "Porto" {
		t.Fatalf("expected Porto default allocation, got %+v", snap.Allocations[2])
	}
}

func TestConfirmLoadedIsOneShot(t *testing.T) {
	recorder := &callbackRecorder{}
	planner := newTestPlanner(t, []string{"Lisbon", "Porto"}, 7, func(params *usecase.PlannerParams) {
		params.Callbacks = recorder.callbacks()
	})

	planner.ConfirmLoaded(context.Background(), nil)
	planner.ConfirmLoaded(context.Background(), nil)
	if _, _, dates := recorder.counts(); dates != 1 {
		t.Fatalf("expected a single load propagation, got %d", dates)
	}
}

func TestDeleteActivityThenUndoRestoresPosition(t *testing.T) {
	planner := newTestPlanner(t, []string{"Lisbon", "Porto"}, 7, nil)
	planner.ConfirmLoaded(context.Background(), nil)

	snap := planner.Snapshot()
	leg := snap.Days[0].Activities[0]

	if err := planner.DeleteActivity(context.Background(), 1, leg.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := planner.Snapshot().Days[0].Activities; len(got) != 0 {
		t.Fatalf("expected empty day after delete, got %d activities", len(got))
	}

	restored, err := planner.UndoDelete(context.Background())
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	if !restored {
		t.Fatal("expected undo to restore")
	}
	got := planner.Snapshot().Days[0].Activities
	if len(got) != 1 || got[0].ID != leg.ID {
		t.Fatal("activity not restored at its original position")
	}

	// The slot is consumed.
	restored, err = planner.UndoDelete(context.Background())
	if err != nil {
		t.Fatalf("second undo: %v", err)
	}
	if restored {
		t.Fatal("undo slot must be single-use")
	}
}

func TestUndoExpires(t *testing.T) {
	current := date(2025, 3, 1)
	planner := newTestPlanner(t, []string{"Lisbon", "Porto"}, 7, func(params *usecase.PlannerParams) {
		params.Now = func() time.Time { return current }
	})
	planner.ConfirmLoaded(context.Background(), nil)

	leg := planner.Snapshot().Days[0].Activities[0]
	if err := planner.DeleteActivity(context.Background(), 1, leg.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	current = current.Add(usecase.DefaultUndoExpiry + time.Second)
	restored, err := planner.UndoDelete(context.Background())
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	if restored {
		t.Fatal("undo must be a no-op after expiry")
	}
	if got := planner.Snapshot().Days[0].Activities; len(got) != 0 {
		t.Fatal("expired undo must not restore anything")
	}
}

func TestDeleteReplacesUndoSlot(t *testing.T) {
	planner := newTestPlanner(t, []string{"Lisbon", "Porto"}, 7, nil)
	planner.ConfirmLoaded(context.Background(), nil)

	snap := planner.Snapshot()
	first := snap.Days[0].Activities[0]
	second := snap.Days[4].Activities[0]

	if err := planner.DeleteActivity(context.Background(), 1, first.ID); err != nil {
		t.Fatalf("delete first: %v", err)
	}
	if err := planner.DeleteActivity(context.Background(), 5, second.ID); err != nil {
		t.Fatalf("delete second: %v", err)
	}

	restored, err := planner.UndoDelete(context.Background())
	if err != nil || !restored {
		t.Fatalf("undo: restored=%v err=%v", restored, err)
	}
	snap = planner.Snapshot()
	if len(snap.Days[0].Activities) != 0 {
		t.Fatal("first delete must stay deleted")
	}
	if len(snap.Days[4].Activities) != 1 || snap.Days[4].Activities[0].ID != second.ID {
		t.Fatal("latest delete must be the one restored")
	}
}

func TestMoveActivityRecomputesSuggestedTimes(t *testing.T) {
	enrichment := &stubEnrichment{suggestions: []entity.Activity{
		mustStay(t, entity.ActivityAttraction, "Belem Tower"),
		mustStay(t, entity.ActivityCafe, "Pasteis de Belem"),
		mustStay(t, entity.ActivityCulture, "MAAT"),
	}}
	planner := newTestPlanner(t, []string{"Lisbon", "Porto"}, 7, func(params *usecase.PlannerParams) {
		params.Enrichment = enrichment
	})
	planner.ConfirmLoaded(context.Background(), nil)

	if err := planner.AutoFillDay(context.Background(), 2, nil); err != nil {
		t.Fatalf("auto-fill: %v", err)
	}
	if err := planner.MoveActivity(context.Background(), 2, 0, 2); err != nil {
		t.Fatalf("move: %v", err)
	}

	got := planner.Snapshot().Days[1].Activities
	wantOrder := []string{"Pasteis de Belem", "MAAT", "Belem Tower"}
	wantTimes := []string{"09:00", "11:00", "13:00"}
	for i := range got {
		if got[i].Name != wantOrder[i] {
			t.Fatalf("position %d holds %q, expected %q", i, got[i].Name, wantOrder[i])
		}
		if got[i].SuggestedTime != wantTimes[i] {
			t.Fatalf("position %d suggests %q, expected %q", i, got[i].SuggestedTime, wantTimes[i])
		}
	}
}

func TestUpdateActivityPatchesFields(t *testing.T) {
	planner := newTestPlanner(t, []string{"Lisbon", "Porto"}, 7, nil)
	planner.ConfirmLoaded(context.Background(), nil)

	leg := planner.Snapshot().Days[0].Activities[0]
	cost := 89.90
	attachment := entity.Attachment{ID: "att-1", Name: "ticket.pdf", URL: "https://files/ticket.pdf"}
	err := planner.UpdateActivity(context.Background(), 1, leg.ID, usecase.ActivityPatch{
		UserCost:      &cost,
		AddAttachment: &attachment,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	got := planner.Snapshot().Days[0].Activities[0]
	if got.UserCost != cost {
		t.Fatalf("user cost %v, expected %v", got.UserCost, cost)
	}
	if len(got.Attachments) != 1 || got.Attachments[0].ID != "att-1" {
		t.Fatalf("attachment not applied: %+v", got.Attachments)
	}

	removeID := "att-1"
	err = planner.UpdateActivity(context.Background(), 1, leg.ID, usecase.ActivityPatch{RemoveAttachmentID: &removeID})
	if err != nil {
		t.Fatalf("remove attachment: %v", err)
	}
	if got := planner.Snapshot().Days[0].Activities[0]; len(got.Attachments) != 0 {
		t.Fatal("attachment not removed")
	}

	err = planner.UpdateActivity(context.Background(), 1, "missing", usecase.ActivityPatch{UserCost: &cost})
	if !errors.Is(err, usecase.ErrActivityNotFound) {
		t.Fatalf("expected ErrActivityNotFound, got %v", err)
	}
}

func TestAutoFillRejectsTransitDay(t *testing.T) {
	planner := newTestPlanner(t, []string{"Lisbon", "Porto"}, 7, func(params *usecase.PlannerParams) {
		params.Enrichment = &stubEnrichment{}
	})
	planner.ConfirmLoaded(context.Background(), nil)

	err := planner.AutoFillDay(context.Background(), 1, nil)
	if !errors.Is(err, usecase.ErrTransitDayFill) {
		t.Fatalf("expected ErrTransitDayFill, got %v", err)
	}
}

func TestAutoFillDiscardsStaleResult(t *testing.T) {
	enrichment := &stubEnrichment{suggestions: []entity.Activity{
		mustStay(t, entity.ActivityAttraction, "Belem Tower"),
	}}
	planner := newTestPlanner(t, []string{"Lisbon", "Porto"}, 7, func(params *usecase.PlannerParams) {
		params.Enrichment = enrichment
	})
	planner.ConfirmLoaded(context.Background(), nil)

	// Restructure the timeline while the request is in flight.
	enrichment.hook = func() {
		if err := planner.SetNights(context.Background(), 1, 2); err != nil {
			t.Errorf("concurrent set nights: %v", err)
		}
	}

	if err := planner.AutoFillDay(context.Background(), 2, nil); err != nil {
		t.Fatalf("auto-fill: %v", err)
	}
	for _, day := range planner.Snapshot().Days {
		for _, activity := range day.Activities {
			if activity.Name == "Belem Tower" {
				t.Fatal("stale auto-fill result must be discarded")
			}
		}
	}
}

func TestAutoFillExcludesExistingNames(t *testing.T) {
	enrichment := &stubEnrichment{suggestions: []entity.Activity{
		mustStay(t, entity.ActivityAttraction, "Belem Tower"),
		mustStay(t, entity.ActivityCafe, "Pasteis de Belem"),
	}}
	planner := newTestPlanner(t, []string{"Lisbon", "Porto"}, 7, func(params *usecase.PlannerParams) {
		params.Enrichment = enrichment
	})
	planner.ConfirmLoaded(context.Background(), nil)

	if err := planner.AutoFillDay(context.Background(), 2, nil); err != nil {
		t.Fatalf("first auto-fill: %v", err)
	}
	if err := planner.AutoFillDay(context.Background(), 3, nil); err != nil {
		t.Fatalf("second auto-fill: %v", err)
	}

	exclude := make(map[string]bool)
	for _, name := range enrichment.lastExclude {
		exclude[name] = true
	}
	if !exclude["Belem Tower"] || !exclude["Pasteis de Belem"] {
		t.Fatalf("existing activity names missing from exclude list: %v", enrichment.lastExclude)
	}
}

func TestEnrichImagesFetchesOncePerActivity(t *testing.T) {
	enrichment := &stubEnrichment{suggestions: []entity.Activity{
		mustStay(t, entity.ActivityAttraction, "Belem Tower"),
		mustStay(t, entity.ActivityCafe, "Pasteis de Belem"),
	}}
	images := &stubImages{url: "https://img.example/belem.jpg"}
	planner := newTestPlanner(t, []string{"Lisbon", "Porto"}, 7, func(params *usecase.PlannerParams) {
		params.Enrichment = enrichment
		params.Images = images
	})
	planner.ConfirmLoaded(context.Background(), nil)

	if err := planner.AutoFillDay(context.Background(), 2, nil); err != nil {
		t.Fatalf("auto-fill: %v", err)
	}
	if err := planner.EnrichImages(context.Background()); err != nil {
		t.Fatalf("enrich images: %v", err)
	}
	if images.callCount() != 2 {
		t.Fatalf("expected 2 image lookups, got %d", images.callCount())
	}
	for _, activity := range planner.Snapshot().Days[1].Activities {
		if activity.ImageURL == "" {
			t.Fatalf("activity %q missing image url", activity.Name)
		}
	}

	if err := planner.EnrichImages(context.Background()); err != nil {
		t.Fatalf("second enrich: %v", err)
	}
	if images.callCount() != 2 {
		t.Fatalf("repeat enrich must not refetch, got %d lookups", images.callCount())
	}
}

func TestSetStartDateShiftsDatesInPlace(t *testing.T) {
	recorder := &callbackRecorder{}
	planner := newTestPlanner(t, []string{"Lisbon", "Porto"}, 7, func(params *usecase.PlannerParams) {
		params.Callbacks = recorder.callbacks()
	})
	planner.ConfirmLoaded(context.Background(), nil)
	before := planner.Snapshot()

	if err := planner.SetStartDate(context.Background(), date(2025, 4, 10)); err != nil {
		t.Fatalf("set start date: %v", err)
	}

	snap := planner.Snapshot()
	if !snap.Days[0].Date.Equal(date(2025, 4, 10)) || !snap.Days[6].Date.Equal(date(2025, 4, 16)) {
		t.Fatalf("day dates not shifted: %v .. %v", snap.Days[0].Date, snap.Days[6].Date)
	}
	if !snap.Allocations[1].StartDate.Equal(date(2025, 4, 11)) {
		t.Fatalf("allocation dates not shifted: %v", snap.Allocations[1].StartDate)
	}
	// Same structure, same content.
	if len(snap.Days) != len(before.Days) {
		t.Fatal("day count must not change on a date shift")
	}
	if snap.Days[0].Activities[0].ID != before.Days[0].Activities[0].ID {
		t.Fatal("date shift must not regenerate activities")
	}
	if _, _, dates := recorder.counts(); dates != 2 {
		t.Fatalf("expected dates callback on shift, got %d", dates)
	}
}

func TestSetTotalDaysSurfacesImbalance(t *testing.T) {
	planner := newTestPlanner(t, []string{"Lisbon", "Porto"}, 7, nil)
	planner.ConfirmLoaded(context.Background(), nil)

	if balance := planner.Balance(); balance != 0 {
		t.Fatalf("fresh allocation should balance, got %d", balance)
	}
	if err := planner.SetTotalDays(context.Background(), 9); err != nil {
		t.Fatalf("set total days: %v", err)
	}
	// Six allocated nights against an eight-night window.
	if balance := planner.Balance(); balance != -2 {
		t.Fatalf("expected balance -2, got %d", balance)
	}

	if err := planner.AutoAllocate(context.Background()); err != nil {
		t.Fatalf("auto allocate: %v", err)
	}
	if balance := planner.Balance(); balance != 0 {
		t.Fatalf("auto allocate should rebalance, got %d", balance)
	}
	if snap := planner.Snapshot(); len(snap.Days) != 9 {
		t.Fatalf("expected 9 days after rebalance, got %d", len(snap.Days))
	}

	if err := planner.SetTotalDays(context.Background(), 1); !errors.Is(err, usecase.ErrInsufficientDuration) {
		t.Fatalf("expected ErrInsufficientDuration, got %v", err)
	}
}

func TestInsertAndRemoveTransit(t *testing.T) {
	planner := newTestPlanner(t, []string{"Lisbon", "Porto"}, 7, nil)
	planner.ConfirmLoaded(context.Background(), nil)

	if err := planner.InsertTransit(context.Background(), 1); err != nil {
		t.Fatalf("insert transit: %v", err)
	}
	snap := planner.Snapshot()
	if len(snap.Allocations) != 4 || !snap.Allocations[2].IsTransit() {
		t.Fatalf("transit not inserted after Lisbon: %+v", snap.Allocations)
	}
	if len(snap.Days) != 8 {
		t.Fatalf("expected 8 days with the extra transit, got %d", len(snap.Days))
	}
	if balance := planner.Balance(); balance != 1 {
		t.Fatalf("inserted transit should surface as +1, got %d", balance)
	}

	if err := planner.RemoveTransit(context.Background(), 1); !errors.Is(err, usecase.ErrNotTransit) {
		t.Fatalf("expected ErrNotTransit for a stay, got %v", err)
	}
	if err := planner.RemoveTransit(context.Background(), 2); err != nil {
		t.Fatalf("remove transit: %v", err)
	}
	if snap := planner.Snapshot(); len(snap.Allocations) != 3 || len(snap.Days) != 7 {
		t.Fatalf("transit not removed: %d allocations, %d days", len(snap.Allocations), len(snap.Days))
	}
}

func TestSetTransportOverrideRegeneratesLeg(t *testing.T) {
	planner := newTestPlanner(t, []string{"Lisbon", "Porto"}, 7, nil)
	planner.ConfirmLoaded(context.Background(), nil)

	if got := planner.Snapshot().Days[4].Activities[0].Type; got != entity.ActivityTrain {
		t.Fatalf("expected recommended train before override, got %s", got)
	}

	if err := planner.SetTransportOverride(context.Background(), 1, entity.ModeBus); err != nil {
		t.Fatalf("set override: %v", err)
	}
	leg := planner.Snapshot().Days[4].Activities[0]
	if leg.Type != entity.ActivityBus {
		t.Fatalf("expected bus after override, got %s", leg.Type)
	}
	if leg.Transport.Operator != "FlixBus" {
		t.Fatalf("expected the bus option's operator, got %q", leg.Transport.Operator)
	}

	if err := planner.SetTransportOverride(context.Background(), 1, entity.TransportMode("rocket")); !errors.Is(err, usecase.ErrUnknownTransportMode) {
		t.Fatalf("expected ErrUnknownTransportMode, got %v", err)
	}
	if err := planner.SetTransportOverride(context.Background(), 0, entity.ModeBus); !errors.Is(err, usecase.ErrNotTransit) {
		t.Fatalf("expected ErrNotTransit for the transit leg, got %v", err)
	}
}

func TestMoveCityKeepsNightsAttached(t *testing.T) {
	planner := newTestPlanner(t, []string{"Lisbon", "Porto"}, 7, nil)
	planner.ConfirmLoaded(context.Background(), nil)

	if err := planner.MoveCity(context.Background(), 0, 1); err != nil {
		t.Fatalf("move city: %v", err)
	}

	snap := planner.Snapshot()
	if snap.Cities[0] != "Porto" || snap.Cities[1] != "Lisbon" {
		t.Fatalf("city order not updated: %v", snap.Cities)
	}
	if snap.Allocations[1].City != "Porto" || snap.Allocations[1].Nights != 2 {
		t.Fatalf("Porto lost its nights: %+v", snap.Allocations[1])
	}
	if snap.Allocations[2].City != "Lisbon" || snap.Allocations[2].Nights != 3 {
		t.Fatalf("Lisbon lost its nights: %+v", snap.Allocations[2])
	}
}

func TestSetCitiesRegeneratesWhenSetChanges(t *testing.T) {
	planner := newTestPlanner(t, []string{"Lisbon", "Porto"}, 7, nil)
	planner.ConfirmLoaded(context.Background(), nil)

	if err := planner.SetCities(context.Background(), []string{"Lisbon", "Madrid"}); err != nil {
		t.Fatalf("set cities: %v", err)
	}
	snap := planner.Snapshot()
	if snap.Allocations[2].City != "Madrid" {
		t.Fatalf("expected Madrid allocation, got %+v", snap.Allocations)
	}
	if len(snap.Days) != 7 {
		t.Fatalf("expected 7 days, got %d", len(snap.Days))
	}
	if snap.Days[6].City != "Madrid" {
		t.Fatalf("last day assigned to %q, expected Madrid", snap.Days[6].City)
	}
}
