// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package services

import (
	"fmt"
	"reflect"
)

// Service must be implemented by all services.
type Service interface {
	Start() error
	Stop() error
}

// Registry is a structure to manage core system services.
type Registry struct {
	services     map[reflect.Type]Service // map of types to service instances
	serviceTypes []reflect.Type           // all known service types, used to iterate through services
	logger       Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger Logger) *Registry {
	return &Registry{
		services: make(map[reflect.Type]Service),
		logger:   logger,
	}
}

// RegisterService stores a new service in the map.
// If a service of that type has already been seen it is not added.
func (r *Registry) RegisterService(service Service) {
	kind := reflect.TypeOf(service)
	if _, exists := r.services[kind]; exists {
		r.logger.Warnf("Tried to add service type %s that has already been seen", kind)
		return
	}
	r.services[kind] = service
	r.serviceTypes = append(r.serviceTypes, kind)
}

// StartAll calls Service.Start() for all registered services,
// in registration order. It stops and returns on the first error,
// so an inconsistent partially started set is never left running silently.
func (r *Registry) StartAll() (err error) {
	r.logger.Infof("Starting services: %v", r.serviceTypes)
	for _, typ := range r.serviceTypes {
		r.logger.Debugf("Starting service %s", typ)
		err := r.services[typ].Start()
		if err != nil {
			return fmt.Errorf("starting service %s: %w", typ, err)
		}
	}
	r.logger.Debug("All services started.")
	return nil
}

// StopAll calls Service.Stop() for all registered services, in
// reverse registration order. Stop errors are logged and do not
// prevent stopping the remaining services.
func (r *Registry) StopAll() {
	r.logger.Infof("Stopping services: %v", r.serviceTypes)
	for i := len(r.serviceTypes) - 1; i >= 0; i-- {
		typ := r.serviceTypes[i]
		r.logger.Debugf("Stopping service %s", typ)
		err := r.services[typ].Stop()
		if err != nil {
			r.logger.Errorf("Error stopping service %s: %s", typ, err)
		}
	}
	r.logger.Debug("All services stopped.")
}

// Get retrieves the registered service matching the type of the
// pointer given, or nil if there is no such service.
func (r *Registry) Get(srvc interface{}) Service {
	if reflect.TypeOf(srvc).Kind() != reflect.Ptr {
		r.logger.Warnf("expected a pointer but got %T", srvc)
		return nil
	}
	e := reflect.ValueOf(srvc)
	if s, ok := r.services[e.Type()]; ok {
		return s
	}
	r.logger.Warnf("unknown service type %T", srvc)
	return nil
}
