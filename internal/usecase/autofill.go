package usecase

import (
	"context"
	"errors"

	"tripline-service/pkg/utils"
)

// ErrTransitDayFill is returned when auto-fill targets a travel day.
var ErrTransitDayFill = errors.New("cannot auto-fill a transit day")

// AutoFillDay asks the enrichment service for activity suggestions for
// one day and applies them. Every invocation issues a fresh request;
// stale city context is never served from a cache. The result is
// applied only if the day's generation counter is unchanged since the
// request went out, so a day restructured mid-flight silently discards
// the response. Enrichment failures leave the day exactly as it was.
func (p *TripPlanner) AutoFillDay(ctx context.Context, dayNumber int, preferences []string) error {
	p.mu.Lock()
	day, err := p.dayLocked(dayNumber)
	if err != nil {
		p.mu.Unlock()
		return err
	}
	if day.IsTransit() {
		p.mu.Unlock()
		return ErrTransitDayFill
	}
	city := day.City
	version := p.dayVersions[dayNumber]
	nights := 0
	for _, alloc := range p.allocations {
		if alloc.City == city {
			nights += alloc.Nights
		}
	}
	exclude := make([]string, 0)
	for _, d := range p.days {
		for _, activity := range d.Activities {
			if !activity.IsTransport() {
				exclude = append(exclude, activity.Name)
			}
		}
	}
	p.mu.Unlock()

	if p.enrichment == nil {
		return nil
	}
	suggestions, err := p.enrichment.SuggestActivities(ctx, city, nights, preferences, exclude)
	if err != nil {
		p.logger.Error("Activity enrichment failed", "city", city, "day", dayNumber, "error", err)
		if p.metrics != nil {
			p.metrics.EnrichmentFailures.Inc()
		}
		return nil
	}
	if len(suggestions) == 0 {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if dayNumber > len(p.days) || p.dayVersions[dayNumber] != version {
		p.logger.Info("Discarding stale auto-fill result", "day", dayNumber, "city", city)
		return nil
	}
	target := &p.days[dayNumber-1]
	if target.City != city {
		p.logger.Info("Discarding auto-fill result for reassigned day", "day", dayNumber, "city", city)
		return nil
	}
	offset := len(target.Activities)
	for i, suggestion := range suggestions {
		if suggestion.SuggestedTime == "" {
			suggestion.SuggestedTime = utils.SlotTime(offset + i)
		}
		target.Activities = append(target.Activities, suggestion)
	}

	p.propagateLocked(false)
	return p.persistLocked(ctx)
}

// EnrichImages resolves an image for every activity that has none yet.
// Activity ids already submitted once are skipped for the planner's
// lifetime, so re-renders of the day list never duplicate in-flight
// fetches. Lookups are best effort; failures only log.
func (p *TripPlanner) EnrichImages(ctx context.Context) error {
	if p.images == nil {
		return nil
	}

	type imageTarget struct {
		activityID string
		name       string
		city       string
	}

	p.mu.Lock()
	pending := make([]imageTarget, 0)
	for _, day := range p.days {
		for _, activity := range day.Activities {
			if activity.ImageURL != "" || activity.IsTransport() {
				continue
			}
			if _, done := p.imageRequested[activity.ID]; done {
				continue
			}
			p.imageRequested[activity.ID] = struct{}{}
			pending = append(pending, imageTarget{activity.ID, activity.Name, day.City})
		}
	}
	p.mu.Unlock()

	if len(pending) == 0 {
		return nil
	}

	updated := false
	for _, target := range pending {
		if p.imageRate != nil {
			if err := p.imageRate.Wait(ctx); err != nil {
				return err
			}
		}
		url, err := p.images.FetchActivityImage(ctx, target.name, target.city)
		if err != nil {
			p.logger.Warn("Image lookup failed", "activity", target.name, "error", err)
			continue
		}
		if url == "" {
			continue
		}

		p.mu.Lock()
		for i := range p.days {
			for j := range p.days[i].Activities {
				if p.days[i].Activities[j].ID == target.activityID {
					p.days[i].Activities[j].ImageURL = url
					updated = true
				}
			}
		}
		p.mu.Unlock()
		if p.metrics != nil {
			p.metrics.ImagesFetched.Inc()
		}
	}

	if !updated {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.propagateLocked(false)
	return p.persistLocked(ctx)
}
