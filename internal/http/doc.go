// Package http provides HTTP handlers and middleware for the TutorRec API.
//
// The router exposes the following endpoints:
//   - GET /persons, POST /persons: list contacts or add one. Bodies exchange the
//     `personRequest`/`personDTO` payloads defined in person_handler.go. A created
//     person's response lists names of existing contacts that look alike.
//   - GET /persons/{id}, PUT /persons/{id}, DELETE /persons/{id}: read, replace or
//     remove a contact together with their slots.
//   - POST /persons/{id}/appointments: book a slot. Body: {"slot":"10:00-11:00 MON"}.
//   - PUT /persons/{id}/appointments/{slot}, DELETE /persons/{id}/appointments/{slot}:
//     move or release one of the contact's slots. The slot is path escaped, for
//     example 10:00-11:00%20MON.
//   - GET /appointments: the book-wide timetable ordered by day and start time.
//   - POST /appointments/check: report whether a slot is free without booking it.
//   - GET /calendar.ics: the timetable as an iCalendar feed of weekly events.
//
// Malformed slots and missing names answer 422, clashing or repeated slots and
// duplicate contacts answer 409, unknown contacts or slots answer 404.
package http
