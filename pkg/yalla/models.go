package yalla

import (
	"bytes"
	"io"
	"strings"
	"time"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// DefaultPhoto is the backend sentinel for users without an uploaded photo.
const DefaultPhoto = "default-profile.png"

type User struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Photo       string    `json:"photo"`
	Gender      Gender    `json:"gender"`
	DateOfBirth string    `json:"dateOfBirth"`
	CreatedAt   time.Time `json:"createdAt"`
}

// HasCustomPhoto reports whether the profile photo was ever uploaded.
func (u *User) HasCustomPhoto() bool {
	return u.Photo != "" && !strings.HasSuffix(u.Photo, DefaultPhoto)
}

// Author is the user summary embedded in posts and comments.
type Author struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Photo string `json:"photo"`
}

type Comment struct {
	ID        string    `json:"_id"`
	Content   string    `json:"content"`
	Creator   Author    `json:"commentCreator"`
	Post      string    `json:"post"`
	CreatedAt time.Time `json:"createdAt"`
}

type Post struct {
	ID        string     `json:"_id"`
	Body      string     `json:"body"`
	Image     string     `json:"image,omitempty"`
	User      Author     `json:"user"`
	CreatedAt time.Time  `json:"createdAt"`
	Comments  []*Comment `json:"comments"`
}

type PaginationInfo struct {
	CurrentPage   int `json:"currentPage"`
	NumberOfPages int `json:"numberOfPages"`
	Limit         int `json:"limit"`
	NextPage      int `json:"nextPage,omitempty"`
	Total         int `json:"total"`
}

type PostPage struct {
	Posts      []*Post
	Pagination PaginationInfo
}

// HasNext reports whether another page follows this one.
func (p *PostPage) HasNext() bool {
	return p.Pagination.CurrentPage < p.Pagination.NumberOfPages
}

// File is an in-memory upload.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

func (f *File) Size() int {
	return len(f.Data)
}

func (f *File) reader() io.Reader {
	return bytes.NewReader(f.Data)
}
