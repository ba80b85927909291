package http

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/fjod/go_store/internal/domain"
	"github.com/fjod/go_store/internal/logger"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pageNames = []string{"home.html", "login.html", "register.html", "profile.html", "products.html", "cart.html", "error.html"}

type pageData struct {
	Title   string
	Menu    Menu
	Session *domain.Session
	Error   string
	Data    any
}

type productsView struct {
	CartID string
	Page   ProductsResponse
}

type ViewHandler struct {
	carts    CartService
	products ProductService
	pages    map[string]*template.Template
	timeout  time.Duration
	log      *zap.SugaredLogger
}

func NewViewHandler(carts CartService, products ProductService, timeout time.Duration, log *zap.SugaredLogger) (*ViewHandler, error) {
	funcs := template.FuncMap{
		"subtotal": func(price float64, quantity int) float64 { return price * float64(quantity) },
	}

	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templatesFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = tmpl
	}

	return &ViewHandler{
		carts:    carts,
		products: products,
		pages:    pages,
		timeout:  timeout,
		log:      log,
	}, nil
}

func (h *ViewHandler) Home(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "home.html", pageData{Title: "Home", Menu: homeMenu()})
}

func (h *ViewHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "login.html", pageData{
		Title: "Login",
		Menu:  loginMenu(),
		Error: r.URL.Query().Get("error"),
	})
}

func (h *ViewHandler) Register(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "register.html", pageData{
		Title: "Register",
		Menu:  registerMenu(),
		Error: r.URL.Query().Get("error"),
	})
}

func (h *ViewHandler) Profile(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "profile.html", pageData{Title: "Profile", Menu: profileMenu()})
}

func (h *ViewHandler) Products(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	q, err := parseProductQuery(r.URL.Query())
	if err != nil {
		h.renderError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	page, err := h.products.List(ctx, q)
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}

	var cartID string
	if sess := SessionFromContext(r.Context()); sess != nil {
		cartID = sess.CartID
	}
	h.render(w, r, http.StatusOK, "products.html", pageData{
		Title: "Products",
		Menu:  productsMenu(),
		Data:  productsView{CartID: cartID, Page: newProductsResponse(page, q, r.URL.Query().Get("query"))},
	})
}

// MyCart redirects to the cart of the logged-in user.
func (h *ViewHandler) MyCart(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	if sess == nil || sess.CartID == "" {
		h.renderError(w, r, http.StatusNotFound, "no cart for this session")
		return
	}
	http.Redirect(w, r, "/carts/"+sess.CartID, http.StatusSeeOther)
}

func (h *ViewHandler) Cart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cart, err := h.carts.Fetch(ctx, chi.URLParam(r, "cid"))
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, "cart.html", pageData{Title: "Cart", Menu: cartMenu(), Data: cart})
}

func (h *ViewHandler) renderServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, _ := errorStatus(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		logger.WithContext(r.Context(), h.log).Errorw("view failed", "path", r.URL.Path, "error", err)
		message = http.StatusText(status)
	}
	h.renderError(w, r, status, message)
}

func (h *ViewHandler) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.render(w, r, status, "error.html", pageData{Title: "Error", Menu: homeMenu(), Error: message})
}

// render executes the page into a buffer first so a template failure
// still produces a clean 500.
func (h *ViewHandler) render(w http.ResponseWriter, r *http.Request, status int, name string, data pageData) {
	data.Session = SessionFromContext(r.Context())

	var buf bytes.Buffer
	if err := h.pages[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		logger.WithContext(r.Context(), h.log).Errorw("failed to render template", "template", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
