package messaging_test

import (
	"context"
	"testing"

	"github.com/unigate/unigate/core"
	"github.com/unigate/unigate/core/audit"
	"github.com/unigate/unigate/core/messaging"
	"github.com/unigate/unigate/core/notification"
	"github.com/unigate/unigate/core/profile"
	"github.com/unigate/unigate/core/realtime"
	dummydb "github.com/unigate/unigate/storage/database/dummy"
	testutil "github.com/unigate/unigate/tests"
)

type msgFixture struct {
	notifSvc *notification.Service
	profRepo profile.Repository
	hub      *realtime.Hub
	db       *dummydb.DB
}

func setupMsg(t *testing.T) (*messaging.Service, *msgFixture) {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	hub := realtime.NewHub()
	notifSvc := notification.NewService(dummydb.NewNotificationRepository(db), hub)
	auditSvc := audit.NewService(dummydb.NewAuditRepository(db), testutil.NewLogger())

	svc := messaging.NewService(dummydb.NewMessagingRepository(db), notifSvc, auditSvc, hub)
	return svc, &msgFixture{
		notifSvc: notifSvc,
		profRepo: dummydb.NewProfileRepository(db),
		hub:      hub,
		db:       db,
	}
}

func TestService_GetOrCreateConversation_uniquePerParticipantSet(t *testing.T) {
	svc, _ := setupMsg(t)
	ctx := context.Background()

	alice := testutil.NewActor("acme", profile.RoleStudent)
	bob := testutil.NewActor("acme", profile.RoleStaff)

	conv1, err := svc.GetOrCreateConversation(ctx, alice, messaging.StartConversation{ParticipantIDs: []string{bob.ID}})
	if err != nil {
		t.Fatalf("GetOrCreateConversation() failed: %v", err)
	}

	// from the other side, same set, duplicates included
	conv2, err := svc.GetOrCreateConversation(ctx, bob, messaging.StartConversation{ParticipantIDs: []string{alice.ID, alice.ID, bob.ID}})
	if err != nil {
		t.Fatalf("GetOrCreateConversation() failed: %v", err)
	}
	if conv1.ID != conv2.ID {
		t.Errorf("got two conversations (%s, %s) for the same participant set", conv1.ID, conv2.ID)
	}

	// actor alone is not a conversation
	_, err = svc.GetOrCreateConversation(ctx, alice, messaging.StartConversation{ParticipantIDs: []string{alice.ID}})
	if core.KindOf(err) != core.KindValidation {
		t.Errorf("solo conversation: kind = %v, want validation", core.KindOf(err))
	}
}

func TestService_SendMessage(t *testing.T) {
	svc, fix := setupMsg(t)
	ctx := context.Background()

	alice := testutil.NewActor("acme", profile.RoleStudent)
	bob := testutil.NewActor("acme", profile.RoleStaff)
	eve := testutil.NewActor("acme", profile.RoleStudent)

	conv, err := svc.GetOrCreateConversation(ctx, alice, messaging.StartConversation{ParticipantIDs: []string{bob.ID}})
	if err != nil {
		t.Fatalf("GetOrCreateConversation() failed: %v", err)
	}

	sub := fix.hub.Subscribe("acme", bob.ID, false)
	defer fix.hub.Unsubscribe(sub)

	msg, err := svc.SendMessage(ctx, alice, conv.ID, messaging.NewMessage{Content: "hello"})
	if err != nil {
		t.Fatalf("SendMessage() failed: %v", err)
	}
	if msg.SenderID != alice.ID {
		t.Errorf("SenderID = %s, want %s", msg.SenderID, alice.ID)
	}

	select {
	case evt := <-sub.Events():
		if evt.Table != "conversation_messages" || evt.Type != realtime.EventInsert {
			t.Errorf("event = %s/%s, want conversation_messages/INSERT", evt.Table, evt.Type)
		}
	default:
		t.Error("expected a feed event for the other participant")
	}

	// the recipient got an inbox notification
	count, err := fix.notifSvc.CountUnread(ctx, profile.Actor{ID: bob.ID, Tenant: "acme", Role: profile.RoleStaff})
	if err != nil {
		t.Fatalf("UnreadCount() failed: %v", err)
	}
	if count != 1 {
		t.Errorf("UnreadCount = %d, want 1", count)
	}

	// outsiders cannot read or post
	if _, err = svc.SendMessage(ctx, eve, conv.ID, messaging.NewMessage{Content: "hi"}); core.KindOf(err) != core.KindNotFound {
		t.Errorf("SendMessage() as outsider: kind = %v, want not found", core.KindOf(err))
	}
	if _, err = svc.ListMessages(ctx, eve, conv.ID, 10); core.KindOf(err) != core.KindNotFound {
		t.Errorf("ListMessages() as outsider: kind = %v, want not found", core.KindOf(err))
	}
}

func TestService_ListMessages_marksRead(t *testing.T) {
	svc, _ := setupMsg(t)
	ctx := context.Background()

	alice := testutil.NewActor("acme", profile.RoleStudent)
	bob := testutil.NewActor("acme", profile.RoleStaff)

	conv, err := svc.GetOrCreateConversation(ctx, alice, messaging.StartConversation{ParticipantIDs: []string{bob.ID}})
	if err != nil {
		t.Fatalf("GetOrCreateConversation() failed: %v", err)
	}
	if _, err = svc.SendMessage(ctx, alice, conv.ID, messaging.NewMessage{Content: "hello"}); err != nil {
		t.Fatalf("SendMessage() failed: %v", err)
	}

	summaries, err := svc.ListConversations(ctx, bob)
	if err != nil {
		t.Fatalf("ListConversations() failed: %v", err)
	}
	if len(summaries) != 1 || summaries[0].UnreadCount != 1 {
		t.Fatalf("summaries = %+v, want one conversation with 1 unread", summaries)
	}

	if _, err = svc.ListMessages(ctx, bob, conv.ID, 10); err != nil {
		t.Fatalf("ListMessages() failed: %v", err)
	}

	summaries, err = svc.ListConversations(ctx, bob)
	if err != nil {
		t.Fatalf("ListConversations() failed: %v", err)
	}
	if summaries[0].UnreadCount != 0 {
		t.Errorf("UnreadCount = %d, want 0 after reading", summaries[0].UnreadCount)
	}
}

func TestService_Broadcast(t *testing.T) {
	svc, fix := setupMsg(t)
	ctx := context.Background()

	staff := testutil.NewActor("acme", profile.RoleStaff)
	stu1 := testutil.CreateProfile(t, fix.profRepo, "acme", profile.RoleStudent, "Stu One", "one@test.cd")
	stu2 := testutil.CreateProfile(t, fix.profRepo, "acme", profile.RoleStudent, "Stu Two", "two@test.cd")
	testutil.CreateProfile(t, fix.profRepo, "acme", profile.RoleAgent, "Agent", "agent@test.cd")
	testutil.CreateProfile(t, fix.profRepo, "globex", profile.RoleStudent, "Other Tenant", "x@test.cd")

	// agents and students may not broadcast
	if _, err := svc.Broadcast(ctx, testutil.NewActor("acme", profile.RoleAgent), messaging.NewBroadcast{
		Audience: messaging.AudienceStudents,
		Content:  "nope",
	}); core.KindOf(err) != core.KindPermissionDenied {
		t.Errorf("Broadcast() as agent: kind = %v, want permission denied", core.KindOf(err))
	}

	conv, err := svc.Broadcast(ctx, staff, messaging.NewBroadcast{
		Audience: messaging.AudienceStudents,
		Content:  "Deadline extended",
	})
	if err != nil {
		t.Fatalf("Broadcast() failed: %v", err)
	}
	if !conv.IsBroadcast {
		t.Error("conversation not marked broadcast")
	}
	// sender + the tenant's students
	if len(conv.ParticipantIDs) != 3 {
		t.Errorf("participants = %d, want 3", len(conv.ParticipantIDs))
	}
	if count, ok := conv.Metadata["recipient_count"].(int); !ok || count != 2 {
		t.Errorf("recipient_count = %v, want 2", conv.Metadata["recipient_count"])
	}

	// recipients can read but not reply
	if _, err = svc.ListMessages(ctx, profile.Actor{ID: stu1.ID, Tenant: "acme", Role: profile.RoleStudent}, conv.ID, 10); err != nil {
		t.Errorf("ListMessages() as recipient failed: %v", err)
	}
	_, err = svc.SendMessage(ctx, profile.Actor{ID: stu2.ID, Tenant: "acme", Role: profile.RoleStudent}, conv.ID, messaging.NewMessage{Content: "reply"})
	if core.KindOf(err) != core.KindPermissionDenied {
		t.Errorf("SendMessage() to broadcast as student: kind = %v, want permission denied", core.KindOf(err))
	}
}

func TestService_Contacts(t *testing.T) {
	svc, fix := setupMsg(t)
	ctx := context.Background()

	testutil.CreateProfile(t, fix.profRepo, "acme", profile.RoleStudent, "Stu", "stu@test.cd")
	testutil.CreateProfile(t, fix.profRepo, "acme", profile.RoleAgent, "Agent", "agent@test.cd")
	testutil.CreateProfile(t, fix.profRepo, "acme", profile.RoleStaff, "Staff", "staff@test.cd")

	// students only see staff
	contacts, err := svc.Contacts(ctx, testutil.NewActor("acme", profile.RoleStudent))
	if err != nil {
		t.Fatalf("Contacts() failed: %v", err)
	}
	if len(contacts) != 1 || contacts[0].Role != profile.RoleStaff {
		t.Errorf("contacts = %+v, want the staff profile only", contacts)
	}

	// staff see everyone
	contacts, err = svc.Contacts(ctx, testutil.NewActor("acme", profile.RoleStaff))
	if err != nil {
		t.Fatalf("Contacts() failed: %v", err)
	}
	if len(contacts) != 3 {
		t.Errorf("len(contacts) = %d, want 3", len(contacts))
	}
}
