// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package handler

import (
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/rpc"
	"net/rpc/jsonrpc"
	"strings"
	"sync"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/registryd/counter"
)

// Details - state reported by the details page
type Details func() interface{}

// Handler - HTTPS endpoints
type Handler interface {
	Root(w http.ResponseWriter, r *http.Request)
	RPC(w http.ResponseWriter, r *http.Request)
	Details(w http.ResponseWriter, r *http.Request)
	Metrics(w http.ResponseWriter, r *http.Request)
	SetAllow(allow map[string][]*net.IPNet)
}

type handler struct {
	sync.RWMutex

	log                *logger.L
	server             *rpc.Server
	details            Details
	metrics            http.Handler
	allow              map[string][]*net.IPNet
	count              counter.Counter
	maximumConnections uint64
}

// type to allow rpc system to interface to http request
type internalConnection struct {
	in  io.Reader
	out io.Writer
}

func (c *internalConnection) Read(p []byte) (n int, err error) {
	return c.in.Read(p)
}
func (c *internalConnection) Write(d []byte) (n int, err error) {
	return c.out.Write(d)
}
func (c *internalConnection) Close() error {
	return nil
}

// New - create the HTTPS handler
//
// details and metrics may be nil, their pages then report not found
func New(log *logger.L, server *rpc.Server, details Details, metrics http.Handler, maximumConnections uint64) Handler {
	return &handler{
		log:                log,
		server:             server,
		details:            details,
		metrics:            metrics,
		allow:              make(map[string][]*net.IPNet),
		maximumConnections: maximumConnections,
	}
}

// SetAllow - access control per page name
func (h *handler) SetAllow(allow map[string][]*net.IPNet) {
	h.Lock()
	h.allow = allow
	h.Unlock()
}

// Root - this matches anything not matched and returns error
func (h *handler) Root(w http.ResponseWriter, r *http.Request) {
	sendNotFound(w)
}

// RPC - performs a call to any normal RPC
func (h *handler) RPC(w http.ResponseWriter, r *http.Request) {
	if http.MethodPost != r.Method {
		sendMethodNotAllowed(w)
		return
	}

	if !h.count.Acquire(h.maximumConnections) {
		sendTooManyRequests(w)
		return
	}
	defer h.count.Release()

	serverCodec := jsonrpc.NewServerCodec(&internalConnection{in: r.Body, out: w})
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	err := h.server.ServeRequest(serverCodec)
	if nil != err {
		h.log.Warnf("rpc serve error: %s", err)
		sendInternalServerError(w)
		return
	}
}

// Details - GET the node information, restricted by the allow list
func (h *handler) Details(w http.ResponseWriter, r *http.Request) {
	if !h.permitted(w, r, "details") {
		return
	}
	defer h.count.Release()

	if nil == h.details {
		sendNotFound(w)
		return
	}
	sendReply(w, h.details())
}

// Metrics - GET the prometheus exposition, restricted by the allow list
func (h *handler) Metrics(w http.ResponseWriter, r *http.Request) {
	if !h.permitted(w, r, "metrics") {
		return
	}
	defer h.count.Release()

	if nil == h.metrics {
		sendNotFound(w)
		return
	}
	h.metrics.ServeHTTP(w, r)
}

// checks method, allow list and connection limit
//
// on true the caller owns one connection count
func (h *handler) permitted(w http.ResponseWriter, r *http.Request, page string) bool {
	if http.MethodGet != r.Method {
		sendMethodNotAllowed(w)
		return false
	}

	if !h.allowed(page, r.RemoteAddr) {
		h.log.Warnf("deny access: %q  page: %s", r.RemoteAddr, page)
		sendForbidden(w)
		return false
	}

	if !h.count.Acquire(h.maximumConnections) {
		sendTooManyRequests(w)
		return false
	}
	return true
}

func (h *handler) allowed(page string, remoteAddr string) bool {
	host := remoteAddr
	if last := strings.LastIndex(remoteAddr, ":"); last >= 0 {
		host = remoteAddr[:last]
	}
	ip := net.ParseIP(strings.Trim(host, "[]"))
	if nil == ip {
		return false
	}

	h.RLock()
	defer h.RUnlock()
	for _, cidr := range h.allow[page] {
		if cidr.Contains(ip) {
			return true
		}
	}
	return false
}

// send an JSON encoded reply
func sendReply(w http.ResponseWriter, data interface{}) {
	text, err := json.Marshal(data)
	if nil != err {
		sendInternalServerError(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(text)
}

// selected errors as required above
func sendNotFound(w http.ResponseWriter) {
	sendError(w, "not found", http.StatusNotFound)
}
func sendMethodNotAllowed(w http.ResponseWriter) {
	sendError(w, "method not allowed", http.StatusMethodNotAllowed)
}
func sendForbidden(w http.ResponseWriter) {
	sendError(w, "forbidden", http.StatusForbidden)
}
func sendTooManyRequests(w http.ResponseWriter) {
	sendError(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
}
func sendInternalServerError(w http.ResponseWriter) {
	sendError(w, "internal server error", http.StatusInternalServerError)
}

// to compose JSON error messages
type eType struct {
	Code  int    `json:"code"`
	Error string `json:"error"`
}

// output an error with a JSON body
func sendError(w http.ResponseWriter, message string, code int) {
	text, err := json.Marshal(eType{
		Code:  code,
		Error: message,
	})
	if nil != err {
		// manually composed error just incase JSON fails
		http.Error(w, `{"code":500,"error":"Internal Server Error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(code)
	_, _ = w.Write(text)
}
