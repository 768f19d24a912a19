// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/oops"

	"github.com/forgeline/forgeline/internal/content"
)

type imagePatchRequest struct {
	Description *string `json:"description" form:"description"`
	Category    *string `json:"category" form:"category"`
}

func (s *Server) listImages(c *gin.Context) {
	images, err := s.services.Gallery.List(c.Request.Context(), c.Query("category"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	n := len(images)
	ok(c, http.StatusOK, envelope{Results: &n, Data: gin.H{"images": images}})
}

// uploadImage reads the multipart field "image". A request without the
// file reaches the service with a nil body and is rejected there.
func (s *Server) uploadImage(c *gin.Context) {
	in := content.UploadInput{
		Category:    c.PostForm("category"),
		Description: c.PostForm("description"),
	}
	if fh, err := c.FormFile("image"); err == nil {
		f, err := fh.Open()
		if err != nil {
			s.respondError(c, oops.Code("IMAGE_UPLOAD_FAILED").With("operation", "open part").Wrap(err))
			return
		}
		defer f.Close() //nolint:errcheck // read-only multipart part
		in.Filename = fh.Filename
		in.ContentType = fh.Header.Get("Content-Type")
		in.Size = fh.Size
		in.Body = f
	}

	img, err := s.services.Gallery.Upload(c.Request.Context(), in)
	if err != nil {
		s.respondError(c, err)
		return
	}
	ok(c, http.StatusCreated, envelope{Data: gin.H{"image": img}})
}

func (s *Server) updateImage(c *gin.Context) {
	id, err := pathID(c, content.MsgImageNotFound)
	if err != nil {
		s.respondError(c, err)
		return
	}
	var req imagePatchRequest
	if err := bind(c, &req); err != nil {
		s.respondError(c, err)
		return
	}
	img, err := s.services.Gallery.Update(c.Request.Context(), id, req.Description, req.Category)
	if err != nil {
		s.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, envelope{Data: gin.H{"image": img}})
}

func (s *Server) deleteImage(c *gin.Context) {
	id, err := pathID(c, content.MsgImageNotFound)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if err := s.services.Gallery.Delete(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, envelope{Message: content.MsgImageDeleted})
}
