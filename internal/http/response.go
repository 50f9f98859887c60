package http

import (
	"time"

	"notes-api/internal/domain"
)

type NoteResponse struct {
	ID        string             `json:"id"`
	Content   string             `json:"content"`
	Important bool               `json:"important"`
	User      *NoteOwnerResponse `json:"user,omitempty"`
	CreatedAt string             `json:"created_at"`
	UpdatedAt string             `json:"updated_at"`
}

type NoteOwnerResponse struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
	Name     string `json:"name,omitempty"`
}

type UserResponse struct {
	ID       string             `json:"id"`
	Username string             `json:"username"`
	Name     string             `json:"name"`
	Notes    []UserNoteResponse `json:"notes"`
}

type UserNoteResponse struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	Important bool   `json:"important"`
}

type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

func noteToResponse(note domain.Note) NoteResponse {
	resp := NoteResponse{
		ID:        note.ID,
		Content:   note.Content,
		Important: note.Important,
		CreatedAt: note.CreatedAt.Format(time.RFC3339),
		UpdatedAt: note.UpdatedAt.Format(time.RFC3339),
	}
	switch {
	case note.Owner != nil:
		resp.User = &NoteOwnerResponse{
			ID:       note.Owner.ID,
			Username: note.Owner.Username,
			Name:     note.Owner.Name,
		}
	case note.OwnerID != "":
		resp.User = &NoteOwnerResponse{ID: note.OwnerID}
	}
	return resp
}

func userToResponse(user domain.User) UserResponse {
	resp := UserResponse{
		ID:       user.ID,
		Username: user.Username,
		Name:     user.Name,
		Notes:    make([]UserNoteResponse, len(user.Notes)),
	}
	for i := range user.Notes {
		resp.Notes[i] = UserNoteResponse{
			ID:        user.Notes[i].ID,
			Content:   user.Notes[i].Content,
			Important: user.Notes[i].Important,
		}
	}
	return resp
}
