package store

import "testing"

func setupPushTestDB(t *testing.T) *PushStore {
	t.Helper()
	return NewPushStore(setupTestDB(t))
}

func TestCreateSubscription(t *testing.T) {
	ps := setupPushTestDB(t)

	sub, err := ps.CreateSubscription("https://push.example.com/sub1", "p256dh_key1", "auth_key1", "Chrome Desktop")
	if err != nil {
		t.Fatalf("create subscription: %v", err)
	}
	if sub.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if sub.Endpoint != "https://push.example.com/sub1" {
		t.Errorf("endpoint = %q, want %q", sub.Endpoint, "https://push.example.com/sub1")
	}
	if sub.DeviceName != "Chrome Desktop" {
		t.Errorf("device_name = %q, want %q", sub.DeviceName, "Chrome Desktop")
	}
}

func TestCreateSubscriptionUpsert(t *testing.T) {
	ps := setupPushTestDB(t)

	first, err := ps.CreateSubscription("https://push.example.com/sub1", "old_key", "old_auth", "Phone")
	if err != nil {
		t.Fatalf("create subscription: %v", err)
	}
	second, err := ps.CreateSubscription("https://push.example.com/sub1", "new_key", "new_auth", "Phone")
	if err != nil {
		t.Fatalf("upsert subscription: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("id = %d, want %d", second.ID, first.ID)
	}
	if second.P256dhKey != "new_key" {
		t.Errorf("p256dh = %q, want %q", second.P256dhKey, "new_key")
	}

	n, err := ps.Count()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestListSubscriptions(t *testing.T) {
	ps := setupPushTestDB(t)

	ps.CreateSubscription("https://push.example.com/sub1", "k1", "a1", "Phone")
	ps.CreateSubscription("https://push.example.com/sub2", "k2", "a2", "Laptop")

	subs, err := ps.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("len = %d, want 2", len(subs))
	}
}

func TestDeleteSubscription(t *testing.T) {
	ps := setupPushTestDB(t)

	sub, _ := ps.CreateSubscription("https://push.example.com/sub1", "k1", "a1", "Phone")
	if err := ps.DeleteSubscription(sub.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err := ps.GetByID(sub.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Error("expected nil after delete")
	}
}

func TestDeleteByEndpoint(t *testing.T) {
	ps := setupPushTestDB(t)

	ps.CreateSubscription("https://push.example.com/sub1", "k1", "a1", "Phone")
	if err := ps.DeleteByEndpoint("https://push.example.com/sub1"); err != nil {
		t.Fatalf("delete by endpoint: %v", err)
	}
	got, err := ps.GetByEndpoint("https://push.example.com/sub1")
	if err != nil {
		t.Fatalf("get by endpoint: %v", err)
	}
	if got != nil {
		t.Error("expected nil after delete")
	}
}
