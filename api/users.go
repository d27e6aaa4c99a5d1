package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/dzahariev/respite-users/common"
	"github.com/dzahariev/respite-users/domain"
	"github.com/gorilla/mux"
)

// ListUsers retrieves all users, or one page of them when paging parameters are given
func (server *Server) ListUsers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := common.GetLogger(ctx)
		page := common.Page{}
		if requestContext := common.GetRequestContext(ctx); requestContext != nil {
			page = requestContext.Page
		}
		logger.Debug("ListUsers request received", "page", page.Number, "page_size", page.Size)

		users, total, err := server.Store.List(ctx, page)
		if err != nil {
			server.fail(ctx, w, "Error listing users", err)
			return
		}
		w.Header().Set(common.TotalCountHeader, strconv.FormatInt(total, 10))
		logger.Debug("Users retrieved successfully", "count", len(users), "total", total)
		JSON(w, http.StatusOK, users)
	}
}

// CreateUser is called to create a user
func (server *Server) CreateUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := common.GetLogger(ctx)
		logger.Debug("CreateUser request received")

		body, err := server.readBody(w, r, jsonMediaType)
		if err != nil {
			server.fail(ctx, w, "Error reading request body", err)
			return
		}
		fields, err := domain.DecodeUserFields(body)
		if err != nil {
			server.fail(ctx, w, "Invalid user in request body", err)
			return
		}
		user, err := server.Store.Insert(ctx, fields)
		if err != nil {
			server.fail(ctx, w, "Error creating user", err)
			return
		}

		w.Header().Set("Location", r.URL.Path+"/"+user.ID.String())
		logger.Debug("User created successfully", "id", user.ID)
		JSON(w, http.StatusCreated, user)
	}
}

// GetUser loads a user by given ID
func (server *Server) GetUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := common.GetLogger(ctx)
		id := mux.Vars(r)["id"]
		logger.Debug("GetUser request received", "id", id)

		user, err := server.Store.Get(ctx, id)
		if err != nil {
			server.fail(ctx, w, "Error getting user", err)
			return
		}
		logger.Debug("User retrieved successfully", "id", id)
		JSON(w, http.StatusOK, user)
	}
}

// UpdateUser replaces the writable fields of an existing user
func (server *Server) UpdateUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := common.GetLogger(ctx)
		id := mux.Vars(r)["id"]
		logger.Debug("UpdateUser request received", "id", id)

		body, err := server.readBody(w, r, jsonMediaType)
		if err != nil {
			server.fail(ctx, w, "Error reading request body", server.preferNotFound(ctx, id, err))
			return
		}
		fields, err := domain.DecodeUserFields(body)
		if err != nil {
			server.fail(ctx, w, "Invalid user in request body", server.preferNotFound(ctx, id, err))
			return
		}
		user, err := server.Store.Replace(ctx, id, fields)
		if err != nil {
			server.fail(ctx, w, "Error updating user", err)
			return
		}
		logger.Debug("User updated successfully", "id", id)
		JSON(w, http.StatusOK, user)
	}
}

// PatchUser applies a JSON-Patch document to an existing user
func (server *Server) PatchUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := common.GetLogger(ctx)
		id := mux.Vars(r)["id"]
		logger.Debug("PatchUser request received", "id", id)

		body, err := server.readBody(w, r, jsonPatchMediaType, jsonMediaType)
		if err != nil {
			server.fail(ctx, w, "Error reading request body", server.preferNotFound(ctx, id, err))
			return
		}
		operations, err := server.Patcher.Parse(body)
		if err != nil {
			server.fail(ctx, w, "Invalid patch document", server.preferNotFound(ctx, id, err))
			return
		}
		user, err := server.Store.Patch(ctx, id, func(current domain.User) (domain.User, error) {
			fields, err := server.Patcher.Apply(current.Fields(), operations)
			if err != nil {
				return current, err
			}
			return current.WithFields(fields), nil
		})
		if err != nil {
			server.fail(ctx, w, "Error patching user", err)
			return
		}
		logger.Debug("User patched successfully", "id", id, "operations", len(operations))
		JSON(w, http.StatusOK, user)
	}
}

// DeleteUser deletes a user
func (server *Server) DeleteUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := common.GetLogger(ctx)
		id := mux.Vars(r)["id"]
		logger.Debug("DeleteUser request received", "id", id)

		err := server.Store.Delete(ctx, id)
		if err != nil {
			server.fail(ctx, w, "Error deleting user", err)
			return
		}
		logger.Debug("User deleted successfully", "id", id)
		w.Header().Del("Content-Type")
		w.WriteHeader(http.StatusNoContent)
	}
}

// preferNotFound reports an unknown id ahead of a problem with the request
// body, so requests against missing users always end in 404.
func (server *Server) preferNotFound(ctx context.Context, id string, err error) error {
	_, getErr := server.Store.Get(ctx, id)
	var notFound *domain.NotFoundError
	if errors.As(getErr, &notFound) {
		return getErr
	}
	return err
}

func (server *Server) fail(ctx context.Context, w http.ResponseWriter, message string, err error) {
	status := StatusFor(err)
	logger := common.GetLogger(ctx)
	if status >= http.StatusInternalServerError {
		logger.Error(message, "error", err, "status", status)
	} else {
		logger.Debug(message, "error", err, "status", status)
	}
	ERROR(w, status, err)
}
