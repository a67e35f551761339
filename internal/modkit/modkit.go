// Package modkit wires API modules: shared deps, build options and the module contract
package modkit

import "dlguard/internal/modkit/module"

// Module is the common surface for API modules
type Module = module.Module

// Builder constructs a Module from shared deps and options
type Builder func(Deps, ...Option) Module
