package service

import (
	"context"

	"signcam/internal/logger"
	"signcam/internal/service/preview"
	"signcam/internal/service/websocket"
	"signcam/internal/session"
)

// Manager ties the session to the services around it: every state change is pushed to viewers.
type Manager struct {
	session          *session.Session
	surface          *preview.Surface
	websocketService *websocket.HubService
	logger           *logger.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

func NewManager(sess *session.Session, surface *preview.Surface, hub *websocket.HubService, logger *logger.Logger) *Manager {
	manager := &Manager{
		session:          sess,
		surface:          surface,
		websocketService: hub,
		logger:           logger,
		done:             make(chan struct{}),
	}

	sess.Subscribe(func(st session.State) {
		hub.BroadcastState(st.View())
	})

	logger.Info("🎬 Manager started for session %s", sess.ID())
	return manager
}

// Start runs the websocket hub in the background.
func (m *Manager) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)
	go func() {
		defer close(m.done)
		m.websocketService.Run(ctx)
	}()
}

func (m *Manager) GetSession() *session.Session {
	return m.session
}

func (m *Manager) GetSurface() *preview.Surface {
	return m.surface
}

func (m *Manager) GetWebsocketService() *websocket.HubService {
	return m.websocketService
}

// Stop releases the camera, waits for in-flight frames and closes every viewer.
func (m *Manager) Stop() {
	m.session.Close()
	if m.cancel != nil {
		m.cancel()
		<-m.done
	}
	m.logger.Info("🛑 Manager stopped")
}
