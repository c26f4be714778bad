package httpapi

import (
	"net/http"

	"coursecart-be/internal/catalog"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type courseRequest struct {
	Title         string           `json:"title" validate:"required,notblank,max=200"`
	Slug          string           `json:"slug" validate:"omitempty,max=200"`
	Description   string           `json:"description"`
	Thumbnail     *string          `json:"thumbnail" validate:"omitempty,url"`
	Price         decimal.Decimal  `json:"price" validate:"gte=0"`
	DiscountPrice *decimal.Decimal `json:"discountPrice"`
	OnSale        bool             `json:"onSale"`
	Status        string           `json:"status" validate:"omitempty,oneof=DRAFT PUBLISHED ARCHIVED"`
	CategoryID    *uint            `json:"categoryId" validate:"omitempty,gt=0"`
	FacultyIDs    []uint           `json:"facultyIds" validate:"omitempty,dive,gt=0"`
	ModeIDs       []uint           `json:"modeIds" validate:"omitempty,dive,gt=0"`
	AttemptIDs    []uint           `json:"attemptIds" validate:"omitempty,dive,gt=0"`
}

func (r courseRequest) input() catalog.CourseInput {
	return catalog.CourseInput{
		Title:         r.Title,
		Slug:          r.Slug,
		Description:   r.Description,
		Thumbnail:     r.Thumbnail,
		Price:         r.Price,
		DiscountPrice: r.DiscountPrice,
		OnSale:        r.OnSale,
		Status:        catalog.CourseStatus(r.Status),
		CategoryID:    r.CategoryID,
		FacultyIDs:    r.FacultyIDs,
		ModeIDs:       r.ModeIDs,
		AttemptIDs:    r.AttemptIDs,
	}
}

type lookupRequest struct {
	Name string `json:"name" validate:"required,notblank,max=120"`
	Slug string `json:"slug" validate:"omitempty,max=120"`
}

func courseViews(courses []*catalog.Course) []catalog.CourseView {
	views := make([]catalog.CourseView, 0, len(courses))
	for _, c := range courses {
		views = append(views, catalog.ToCourseView(c))
	}
	return views
}

func lookupKind(c echo.Context) (catalog.LookupKind, error) {
	kind, ok := catalog.ParseLookupKind(c.Param("kind"))
	if !ok {
		return "", catalog.ErrUnknownLookupKind
	}
	return kind, nil
}

// -- Public --

func (s *Server) listCourses(c echo.Context) error {
	limit, pg := page(c)
	courses, err := s.opts.Catalog.ListPublished(c.Request().Context(), limit, pg)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, courseViews(courses))
}

func (s *Server) getCourse(c echo.Context) error {
	course, err := s.opts.Catalog.GetPublishedBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, catalog.ToCourseView(course))
}

// -- Admin: courses --

func (s *Server) adminListCourses(c echo.Context) error {
	limit, pg := page(c)
	status := catalog.CourseStatus(c.QueryParam("status"))

	courses, err := s.opts.Catalog.ListCourses(c.Request().Context(), status, limit, pg)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, courseViews(courses))
}

func (s *Server) adminCreateCourse(c echo.Context) error {
	var req courseRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	course, err := s.opts.Catalog.CreateCourse(c.Request().Context(), req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, catalog.ToCourseView(course))
}

func (s *Server) adminUpdateCourse(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req courseRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	course, err := s.opts.Catalog.UpdateCourse(c.Request().Context(), id, req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, catalog.ToCourseView(course))
}

func (s *Server) adminDeleteCourse(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := s.opts.Catalog.DeleteCourse(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Admin: categories, faculties, modes, attempts --

func (s *Server) adminListLookups(c echo.Context) error {
	kind, err := lookupKind(c)
	if err != nil {
		return err
	}

	limit, pg := page(c)
	items, err := s.opts.Catalog.ListLookups(c.Request().Context(), kind, limit, pg)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (s *Server) adminCreateLookup(c echo.Context) error {
	kind, err := lookupKind(c)
	if err != nil {
		return err
	}

	var req lookupRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	l, err := s.opts.Catalog.CreateLookup(c.Request().Context(), kind, req.Name, req.Slug)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, l)
}

func (s *Server) adminUpdateLookup(c echo.Context) error {
	kind, err := lookupKind(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req lookupRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	l, err := s.opts.Catalog.UpdateLookup(c.Request().Context(), kind, id, req.Name, req.Slug)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, l)
}

func (s *Server) adminDeleteLookup(c echo.Context) error {
	kind, err := lookupKind(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := s.opts.Catalog.DeleteLookup(c.Request().Context(), kind, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
