// Package dummydb provides in-memory repositories for tests.
package dummydb

import (
	"sync"
	"time"

	"github.com/unigate/unigate/core/agent"
	"github.com/unigate/unigate/core/application"
	"github.com/unigate/unigate/core/audit"
	"github.com/unigate/unigate/core/catalog"
	"github.com/unigate/unigate/core/document"
	"github.com/unigate/unigate/core/messaging"
	"github.com/unigate/unigate/core/notification"
	"github.com/unigate/unigate/core/profile"
	"github.com/unigate/unigate/core/student"
)

type (
	DB struct {
		profile      *profileTable
		university   *universityTable
		program      *programTable
		student      *studentTable
		testScore    *testScoreTable
		agent        *agentTable
		commission   *commissionTable
		application  *applicationTable
		document     *documentTable
		notification *notificationTable
		conversation *conversationTable
		message      *messageTable
		audit        *auditTable
	}

	profileTable struct {
		sync.RWMutex
		table map[string]*profile.Profile
	}
	universityTable struct {
		sync.RWMutex
		table map[string]*catalog.University
	}
	programTable struct {
		sync.RWMutex
		table map[string]*catalog.Program
	}
	studentTable struct {
		sync.RWMutex
		table map[string]*student.Student
	}
	testScoreTable struct {
		sync.RWMutex
		table map[string]*student.TestScore
	}
	agentTable struct {
		sync.RWMutex
		table map[string]*agent.Agent
	}
	commissionTable struct {
		sync.RWMutex
		table map[string]*agent.Commission
	}
	applicationTable struct {
		sync.RWMutex
		table map[string]*application.Application
	}
	documentTable struct {
		sync.RWMutex
		table map[string]*document.Document
	}
	notificationTable struct {
		sync.RWMutex
		table map[string]*notification.Notification
	}
	conversationTable struct {
		sync.RWMutex
		table map[string]*messaging.Conversation
		// lastRead[conversationID][userID]
		lastRead map[string]map[string]time.Time
	}
	messageTable struct {
		sync.RWMutex
		table map[string]*messaging.Message
	}
	auditTable struct {
		sync.RWMutex
		entries []audit.Entry
		events  []audit.AnalyticsEvent
	}
)

func Open() (*DB, error) {
	db := &DB{
		profile:      &profileTable{table: make(map[string]*profile.Profile)},
		university:   &universityTable{table: make(map[string]*catalog.University)},
		program:      &programTable{table: make(map[string]*catalog.Program)},
		student:      &studentTable{table: make(map[string]*student.Student)},
		testScore:    &testScoreTable{table: make(map[string]*student.TestScore)},
		agent:        &agentTable{table: make(map[string]*agent.Agent)},
		commission:   &commissionTable{table: make(map[string]*agent.Commission)},
		application:  &applicationTable{table: make(map[string]*application.Application)},
		document:     &documentTable{table: make(map[string]*document.Document)},
		notification: &notificationTable{table: make(map[string]*notification.Notification)},
		conversation: &conversationTable{
			table:    make(map[string]*messaging.Conversation),
			lastRead: make(map[string]map[string]time.Time),
		},
		message: &messageTable{table: make(map[string]*messaging.Message)},
		audit:   &auditTable{},
	}
	return db, nil
}
