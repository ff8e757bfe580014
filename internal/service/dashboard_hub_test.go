package service

import (
	"edu_admin_backend/internal/model"
	"testing"
	"time"
)

func snapshotFor(scope string, totalCourses int) model.DashboardSnapshot {
	return model.DashboardSnapshot{Scope: scope, TotalCourses: totalCourses, ComputedAt: time.Now()}
}

func TestHubDeliversToMatchingScope(t *testing.T) {
	hub := NewDashboardHub(nil)
	defer hub.Stop()

	global := hub.Subscribe(model.ScopeGlobal)
	course := hub.Subscribe("7")

	hub.Publish("7", snapshotFor("7", 1))

	select {
	case got := <-course.Updates:
		if got.Scope != "7" {
			t.Fatalf("wrong snapshot delivered: %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("course subscriber never received the snapshot")
	}

	select {
	case got := <-global.Updates:
		t.Fatalf("global subscriber received a course-scoped snapshot: %+v", got)
	default:
	}
}

func TestHubCoalescesUndeliveredUpdates(t *testing.T) {
	hub := NewDashboardHub(nil)
	defer hub.Stop()

	sub := hub.Subscribe("1")

	// A slow consumer gets only the latest state, not a backlog.
	for i := 1; i <= 5; i++ {
		hub.Publish("1", snapshotFor("1", i))
	}

	got := <-sub.Updates
	if got.TotalCourses != 5 {
		t.Fatalf("expected only the latest snapshot (5), got %d", got.TotalCourses)
	}

	select {
	case stale := <-sub.Updates:
		t.Fatalf("backlog was not coalesced, got %+v", stale)
	default:
	}
}

func TestHubUnsubscribeIsIdempotent(t *testing.T) {
	hub := NewDashboardHub(nil)
	defer hub.Stop()

	sub := hub.Subscribe("1")
	if hub.SubscriberCount() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", hub.SubscriberCount())
	}

	hub.Unsubscribe(sub)
	hub.Unsubscribe(sub)
	if hub.SubscriberCount() != 0 {
		t.Fatalf("expected 0 subscribers, got %d", hub.SubscriberCount())
	}

	// Publishing after unsubscribe must not deliver.
	hub.Publish("1", snapshotFor("1", 1))
	select {
	case got := <-sub.Updates:
		t.Fatalf("dropped subscriber received %+v", got)
	default:
	}
}

func TestHubStopClosesSubscribers(t *testing.T) {
	hub := NewDashboardHub(nil)
	sub := hub.Subscribe("1")

	hub.Stop()

	if _, open := <-sub.Updates; open {
		t.Fatal("expected the updates channel to be closed after Stop")
	}
	if hub.SubscriberCount() != 0 {
		t.Fatalf("expected 0 subscribers after Stop, got %d", hub.SubscriberCount())
	}
}
