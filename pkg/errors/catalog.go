package errors

const langPR = "es-PR"

func coded(base *AppError, code Code, es string) *AppError {
	base.Code = code
	if es != "" {
		base.I18n = map[string]string{langPR: es}
	}
	return base
}

// LocationNotFound is returned when a location id does not resolve
func LocationNotFound() *AppError {
	return coded(NewNotFoundError("Error: Location not found."), CodeLocationNotFound, "Ubicación no encontrada.")
}

// InvalidStartingLatLong is returned when only one half of a search origin is supplied
func InvalidStartingLatLong() *AppError {
	return coded(NewValidationError("Starting coordinates for sorting nearest locations are incomplete."),
		CodeInvalidStartingLatLong,
		"Las coordenadas de inicio para la clasificación de las ubicaciones más cercanas están incompletas.")
}

// AddReviewSpam is returned when a user reviews the same location twice inside the spam window
func AddReviewSpam() *AppError {
	return coded(NewPolicyDeniedError("You can only leave 1 review per listing every 30 days."),
		CodeAddReviewSpam, "Solo puedes dejar 1 opinión por listado cada 30 días.")
}

// InvalidTimeRange is returned when an open hour rule does not start before it ends
func InvalidTimeRange() *AppError {
	return coded(NewValidationError("Invalid time range."), CodeInvalidTimeRange, "Rango de tiempo no válido.")
}

// InvalidTime is returned for unparseable times of day or days of week
func InvalidTime() *AppError {
	return coded(NewValidationError("Invalid time."), CodeInvalidTime, "Tiempo inválido")
}

// ReviewNotFound is returned when a review id does not exist under a location
func ReviewNotFound() *AppError {
	return coded(NewNotFoundError("Review not found."), CodeReviewNotFound, "Revisión no encontrada.")
}

// InvalidCoordinates is returned for malformed or out of range coordinates
func InvalidCoordinates() *AppError {
	return coded(NewValidationError("Invalid coordinates."), CodeInvalidCoordinates, "Coordenadas inválidas")
}

// NearestLocationNotFound is returned when nothing lies inside the nearest-location radius
func NearestLocationNotFound() *AppError {
	return coded(NewNotFoundError("No nearby location."), CodeNearestLocationNotFound, "No hay ubicaciones cercanas.")
}

// LongLatRequired is returned when a nearest-location lookup has no origin
func LongLatRequired() *AppError {
	return coded(NewValidationError("Please provide your starting location."), CodeLongLatRequired, "Proporcione su ubicación inicial.")
}

// CheckinRestricted is returned for a second check-in on the same local day
func CheckinRestricted() *AppError {
	return coded(NewConflictError("You have already checked in today."), CodeCheckinRestricted, "Ya te has registrado hoy.")
}

// MobileNumberRequired is returned when a check-in has no phone number
func MobileNumberRequired() *AppError {
	return coded(NewValidationError("Mobile number is required."), CodeMobileNumberRequired, "Se requiere número de móvil.")
}

// OrganizationOffHoursDisabled is returned when a location opts into off-hours its organization forbids
func OrganizationOffHoursDisabled() *AppError {
	return coded(NewPolicyDeniedError("Organization does not allow off-hours ordering."),
		CodeOrganizationOffHoursDisabled, "La organización no permite pedidos fuera de horario.")
}

// NotAssignedToLocation is returned when the acting user has no assignment to the location
func NotAssignedToLocation() *AppError {
	return coded(NewPolicyDeniedError("You are not assigned to this location."),
		CodeNotAssignedToLocation, "No estás asignado a esta ubicación.")
}

// InvalidOrder is returned for an order clause naming an unknown column or direction
func InvalidOrder(order string) *AppError {
	return coded(NewValidationError("Invalid order: "+order), CodeInvalidOrder, "")
}

// InvalidPage is returned when a page lies beyond any addressable offset
func InvalidPage() *AppError {
	return coded(NewValidationError("Invalid page."), CodeInvalidPage, "Página no válida.")
}

// InvalidRadius is returned for a negative or non-finite mile radius
func InvalidRadius() *AppError {
	return coded(NewValidationError("Invalid mile radius."), CodeInvalidRadius, "Radio de millas no válido.")
}

// InvalidRating is returned for ratings outside 0..5
func InvalidRating() *AppError {
	return coded(NewValidationError("Rating must be between 0 and 5."), CodeInvalidRating, "La calificación debe estar entre 0 y 5.")
}

// TimezoneLookupFailed wraps an upstream timezone lookup failure
func TimezoneLookupFailed(err error) *AppError {
	return coded(NewInternalError("Failed to get location timezone. See logs.", err), CodeTimezoneLookupFailed, "")
}

// CheckInNotFound is returned when a check-in id does not resolve
func CheckInNotFound() *AppError {
	return coded(NewNotFoundError("Check-in not found."), CodeCheckInNotFound, "Registro no encontrado.")
}

// OrganizationNotFound is returned when an organization id does not resolve
func OrganizationNotFound() *AppError {
	return coded(NewNotFoundError("Organization not found."), CodeOrganizationNotFound, "Organización no encontrada.")
}
