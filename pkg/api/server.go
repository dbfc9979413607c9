// Resona Core
// Copyright (c) 2026 The Resona Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Resona Core.
//
// Resona Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Resona Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Resona Core.  If not, see <http://www.gnu.org/licenses/>.

// Package api serves the local JSON-RPC API over websocket. UI intents
// from the entitlement engine are broadcast to every connected client;
// clients drive the engine by sending playback lifecycle notifications.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ResonaProject/resona-core/pkg/api/models"
	"github.com/ResonaProject/resona-core/pkg/config"
	"github.com/ResonaProject/resona-core/pkg/service/entitlement"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/olahol/melody"
	"github.com/rs/zerolog/log"
)

var (
	jsonRPCErrorParseError     = models.ErrorObject{Code: -32700, Message: "parse error"}
	jsonRPCErrorInvalidRequest = models.ErrorObject{Code: -32600, Message: "invalid request"}
	jsonRPCErrorMethodNotFound = models.ErrorObject{Code: -32601, Message: "method not found"}
	jsonRPCErrorServerError    = models.ErrorObject{Code: -32000, Message: "server error"}
)

func maybeUUID(req models.RequestObject) uuid.UUID {
	if req.ID == nil {
		return uuid.Nil
	}
	return *req.ID
}

func sendResponse(session *melody.Session, id uuid.UUID, result any) error {
	resp := models.ResponseObject{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return session.Write(data)
}

func sendError(session *melody.Session, id uuid.UUID, errObj models.ErrorObject) error {
	resp := models.ResponseObject{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &errObj,
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return session.Write(data)
}

// broadcastNotifications pushes engine notifications and intents to every
// connected websocket client as JSON-RPC notifications.
func broadcastNotifications(
	ctx context.Context,
	session *melody.Melody,
	notifications <-chan models.Notification,
) {
	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("api: stopping notification broadcast")
			return
		case notif, ok := <-notifications:
			if !ok {
				return
			}

			params, err := json.Marshal(notif.Params)
			if err != nil {
				log.Error().Err(err).Msg("api: marshalling notification params")
				continue
			}

			req := models.RequestObject{
				JSONRPC: "2.0",
				Method:  notif.Method,
				Params:  params,
			}

			data, err := json.Marshal(req)
			if err != nil {
				log.Error().Err(err).Msg("api: marshalling notification request")
				continue
			}

			if err := session.Broadcast(data); err != nil {
				log.Error().Err(err).Msg("api: broadcasting notification")
			}
		}
	}
}

// forwardClientEvent publishes a client-sent playback lifecycle
// notification to the service notification channel. Returns false for
// methods clients may not publish.
func forwardClientEvent(
	ns chan<- models.Notification,
	method string,
	raw json.RawMessage,
) bool {
	switch method {
	case models.NotificationPlaybackStarted, models.NotificationPlaybackTrackSwitch:
		var p models.TrackParams
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &p); err != nil {
				log.Warn().Err(err).Str("method", method).Msg("api: invalid track params")
				return false
			}
		}
		ns <- models.Notification{Method: method, Params: p}
		return true

	case models.NotificationPlaybackPaused, models.NotificationAppResumed:
		ns <- models.Notification{Method: method}
		return true

	case models.NotificationTierSynced:
		var p models.TierSyncParams
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &p); err != nil {
				log.Warn().Err(err).Msg("api: invalid tier sync params")
				return false
			}
		}
		ns <- models.Notification{Method: method, Params: p}
		return true

	default:
		return false
	}
}

func handleWSMessage(
	env RequestEnv,
	notificationsSend chan<- models.Notification,
) func(session *melody.Session, msg []byte) {
	return func(session *melody.Session, msg []byte) {
		// ping command for heartbeat operation
		if string(msg) == "ping" {
			if err := session.Write([]byte("pong")); err != nil {
				log.Error().Err(err).Msg("api: sending pong")
			}
			return
		}

		if !json.Valid(msg) {
			log.Error().Msg("api: data not valid json")
			if err := sendError(session, uuid.Nil, jsonRPCErrorParseError); err != nil {
				log.Error().Err(err).Msg("api: error sending error response")
			}
			return
		}

		var req models.RequestObject
		if err := json.Unmarshal(msg, &req); err != nil || req.Method == "" {
			log.Error().Msg("api: message is not a request")
			if sendErr := sendError(session, maybeUUID(req), jsonRPCErrorInvalidRequest); sendErr != nil {
				log.Error().Err(sendErr).Msg("api: error sending error response")
			}
			return
		}

		if req.JSONRPC != "2.0" {
			log.Error().Str("jsonrpc", req.JSONRPC).Msg("api: unsupported payload version")
			if err := sendError(session, maybeUUID(req), jsonRPCErrorInvalidRequest); err != nil {
				log.Error().Err(err).Msg("api: error sending error response")
			}
			return
		}

		if req.ID == nil {
			// A request with no ID is a notification: the player front
			// end drives the engine with these.
			if !forwardClientEvent(notificationsSend, req.Method, req.Params) {
				log.Info().Str("method", req.Method).Msg("api: ignoring client notification")
			}
			return
		}

		resp, err := handleRequest(env, req)
		if err != nil {
			errObj := jsonRPCErrorServerError
			if errors.Is(err, ErrMethodNotFound) {
				errObj = jsonRPCErrorMethodNotFound
			}
			if sendErr := sendError(session, *req.ID, errObj); sendErr != nil {
				log.Error().Err(sendErr).Msg("api: error sending error response")
			}
			return
		}

		if err := sendResponse(session, *req.ID, resp); err != nil {
			log.Error().Err(err).Msg("api: error sending response")
		}
	}
}

// Start runs the local API server until the context is cancelled.
// notificationsSend receives client-published playback events;
// notificationsRecv is broadcast to connected clients.
func Start(
	ctx context.Context,
	cfg *config.Instance,
	engine *entitlement.Engine,
	notificationsSend chan<- models.Notification,
	notificationsRecv <-chan models.Notification,
) error {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.NoCache)
	r.Use(middleware.Timeout(config.APIRequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*", "capacitor://*"},
		AllowedMethods: []string{"GET"},
		AllowedHeaders: []string{"Accept"},
		ExposedHeaders: []string{},
	}))

	session := melody.New()
	session.Upgrader.CheckOrigin = func(_ *http.Request) bool { return true }
	go broadcastNotifications(ctx, session, notificationsRecv)

	r.Get("/api", func(w http.ResponseWriter, r *http.Request) {
		if err := session.HandleRequest(w, r); err != nil {
			log.Error().Err(err).Msg("api: handling websocket request")
		}
	})

	env := RequestEnv{
		Config: cfg,
		Engine: engine,
	}
	session.HandleMessage(handleWSMessage(env, notificationsSend))

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.APIPort()),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("api: error shutting down http server")
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
