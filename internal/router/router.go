package router

import (
	"errors"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	apperrors "taskdesk/internal/errors"
	"taskdesk/internal/handler"
	"taskdesk/internal/logging"
	"taskdesk/internal/service"
)

// Services are the dependencies the API routes delegate to.
type Services struct {
	Auth  service.AuthService
	Tasks service.TaskService
	Stats service.StatsService
}

// Register wires routes and middleware.
func Register(e *echo.Echo, logger *slog.Logger, svc Services) {
	e.HideBanner = true
	e.Validator = NewValidator()
	e.HTTPErrorHandler = handler.HTTPErrorHandler(logger)

	e.Use(middleware.RequestID())
	e.Use(logging.RequestLogger(logger))
	e.Use(middleware.Recover())

	infoHandler := handler.NewInfoHandler()
	authHandler := handler.NewAuthHandler(svc.Auth)
	taskHandler := handler.NewTaskHandler(svc.Tasks)
	statsHandler := handler.NewStatsHandler(svc.Stats)

	e.GET("/", infoHandler.Root)
	e.GET("/health", infoHandler.Health)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	// Secured routes (require a bearer token)
	secured := api.Group("", BearerAuth(svc.Auth))
	secured.GET("/auth/me", authHandler.Me)

	secured.GET("/tasks", taskHandler.List)
	secured.POST("/tasks", taskHandler.Create)
	secured.GET("/tasks/:id", taskHandler.Get)
	secured.PUT("/tasks/:id", taskHandler.Update)
	secured.PATCH("/tasks/:id", taskHandler.Update)
	secured.DELETE("/tasks/:id", taskHandler.Delete)

	secured.GET("/stats", statsHandler.Stats)

	admin := secured.Group("/admin", RequireAdmin(svc.Auth))
	admin.GET("/overview", statsHandler.AdminOverview)
}

// BearerAuth resolves the Authorization bearer token to an account and stores it on the context.
func BearerAuth(authService service.AuthService) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  handler.AccountContextKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			return authService.Resolve(c.Request().Context(), auth)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			var appErr *apperrors.Error
			if errors.As(err, &appErr) {
				return toEchoError(err)
			}
			// Missing or malformed header.
			return toEchoError(apperrors.ErrInvalidToken)
		},
	})
}

// RequireAdmin rejects callers whose stored account lacks the administrator flag.
func RequireAdmin(authService service.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			current, err := handler.CurrentAccount(c)
			if err != nil {
				return toEchoError(err)
			}
			account, err := authService.GetAccount(c.Request().Context(), current.ID)
			if err != nil {
				return toEchoError(err)
			}
			if !account.IsAdmin {
				return toEchoError(apperrors.ErrAdminRequired)
			}
			return next(c)
		}
	}
}

func toEchoError(err error) error {
	httpErr := apperrors.MapErrorToHTTP(err)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse()).SetInternal(err)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator returns a validator reporting fields by their json or query names.
func NewValidator() *CustomValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "query", "form"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})
	// Same character rule the account service enforces.
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return service.IsAlphanumeric(service.NormalizeUsername(fl.Field().String()))
	})
	return &CustomValidator{validator: v}
}

// Validate implements echo.Validator interface. Failures come back as validation errors with one detail per field.
func (cv *CustomValidator) Validate(i interface{}) error {
	err := cv.validator.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.Validation("invalid request")
	}
	details := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, fe.Field()+": "+describe(fe))
	}
	return apperrors.Validation("invalid request", details...)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid address"
	case "username":
		return "may only contain letters and digits"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min":
		if fe.Kind() == reflect.String {
			return "must be at least " + fe.Param() + " characters"
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	case "gte":
		return "must not be negative"
	default:
		return "failed " + fe.Tag() + " validation"
	}
}
