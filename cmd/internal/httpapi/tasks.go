package httpapi

import (
	"net/http"

	"tasktrack/cmd/internal/task"
)

func (h *Handler) handleListTasks(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	tasks, err := h.tasks.List(r.Context(), owner)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	out := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, toTaskResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	var req createTaskRequest
	if !h.decode(w, r, &req) {
		return
	}

	id, err := h.tasks.Create(r.Context(), owner, req.Description, pickDueDate(req.DueDate, req.DueDateAlt))
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, createTaskResponse{ID: int64(id), Message: "task created"})
}

func (h *Handler) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	const op = "httpapi.UpdateTask"

	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	id, err := task.ParseID(op, r.PathValue("id"))
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	var req updateTaskRequest
	if !h.decode(w, r, &req) {
		return
	}

	err = h.tasks.UpdateStatusAndDueDate(r.Context(), id, owner, task.Status(req.Status), pickDueDate(req.DueDate, req.DueDateAlt))
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "task updated"})
}

func (h *Handler) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	const op = "httpapi.DeleteTask"

	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	id, err := task.ParseID(op, r.PathValue("id"))
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	if err := h.tasks.Delete(r.Context(), id, owner); err != nil {
		h.writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "task deleted"})
}
