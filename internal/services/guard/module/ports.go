package module

import dom "dlguard/internal/services/guard/domain"

// Ports is what the guard exposes to other modules and to the daemon
type Ports struct {
	Guard   dom.GuardPort
	Scanner dom.ScanPort
	Worker  dom.WorkerPort
}

// Ports implements the modkit.Module interface
func (m *Module) Ports() any { return m.ports }
