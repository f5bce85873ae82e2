package auth

// Routes the session layer sends the clinician to.
const (
	RouteLogin     = "/login"
	RouteDashboard = "/dashboard"
)

// Navigator records where the clinician must go next. The web layer honours
// it on the following request.
type Navigator interface {
	Navigate(route string)
}

type NavigatorFunc func(route string)

func (f NavigatorFunc) Navigate(route string) {
	f(route)
}
