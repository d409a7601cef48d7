package apitest

import (
	"io"
	"net/http"
	"sort"
	"strconv"

	"huddle/internal/models"
)

func (b *Backend) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	b.mu.Lock()
	acc, exists := b.accounts[id]
	b.mu.Unlock()
	if !exists {
		notFound(w, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, acc.user)
}

func (b *Backend) updateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := b.selfParam(w, r, "id")
	if !ok {
		return
	}

	var req models.UpdateUserRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	b.mu.Lock()
	acc := b.accounts[id]
	if req.FullName != nil {
		acc.user.FullName = *req.FullName
	}
	if req.Bio != nil {
		acc.user.Bio = *req.Bio
	}
	if req.City != nil {
		acc.user.City = *req.City
	}
	if req.Age != nil {
		acc.user.Age = *req.Age
	}
	u := acc.user
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, u)
}

func (b *Backend) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := b.selfParam(w, r, "id")
	if !ok {
		return
	}

	b.mu.Lock()
	delete(b.accounts, id)
	for token, owner := range b.refresh {
		if owner == id {
			delete(b.refresh, token)
		}
	}
	b.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) updatePushToken(w http.ResponseWriter, r *http.Request) {
	if _, ok := b.selfParam(w, r, "id"); !ok {
		return
	}
	var req models.PushTokenRequest
	if err := decodeJSON(r.Body, &req); err != nil || req.Token == "" {
		badRequest(w, "token is required")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// selfParam reads a user id path parameter that must name the caller.
func (b *Backend) selfParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, ok := idParam(w, r, name)
	if !ok {
		return 0, false
	}
	if id != callerID(r) {
		forbidden(w, "Cannot modify another user")
		return 0, false
	}
	return id, true
}

func (b *Backend) listActivities(w http.ResponseWriter, r *http.Request) {
	var categoryID int64
	if v := r.URL.Query().Get("categoryId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			badRequest(w, "invalid categoryId")
			return
		}
		categoryID = id
	}

	b.writeActivities(w, func(a *models.Activity) bool {
		return categoryID == 0 || a.CategoryID == categoryID
	})
}

func (b *Backend) listActivitiesByCreator(w http.ResponseWriter, r *http.Request) {
	userID, ok := idParam(w, r, "userId")
	if !ok {
		return
	}
	b.writeActivities(w, func(a *models.Activity) bool { return a.CreatorID == userID })
}

func (b *Backend) listJoinedActivities(w http.ResponseWriter, r *http.Request) {
	userID, ok := idParam(w, r, "userId")
	if !ok {
		return
	}

	b.mu.Lock()
	joined := make(map[int64]bool)
	for _, p := range b.participants {
		if p.FlatUserID == userID && p.Status.Active() {
			joined[p.FlatActivityID] = true
		}
	}
	b.mu.Unlock()

	b.writeActivities(w, func(a *models.Activity) bool { return joined[a.ID] })
}

func (b *Backend) writeActivities(w http.ResponseWriter, keep func(*models.Activity) bool) {
	b.mu.Lock()
	out := make([]models.Activity, 0, len(b.activities))
	for _, a := range b.activities {
		if keep(a) {
			out = append(out, *a)
		}
	}
	b.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) getActivity(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	b.mu.Lock()
	a, exists := b.activities[id]
	var out models.Activity
	if exists {
		out = *a
	}
	b.mu.Unlock()

	if !exists {
		notFound(w, "Activity not found")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) createActivity(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}

	var req models.ActivityRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	b.mu.Lock()
	a := &models.Activity{
		ID:              b.newID(),
		CreatorID:       actor,
		Status:          "OPEN",
		AvailableSpots:  req.MaxParticipants,
		MaxParticipants: req.MaxParticipants,
	}
	applyActivityRequest(a, req)
	if acc, ok := b.accounts[actor]; ok {
		a.CreatorName = acc.user.FullName
	}
	b.activities[a.ID] = a
	out := *a
	b.mu.Unlock()

	writeJSON(w, http.StatusCreated, out)
}

func (b *Backend) updateActivity(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	var req models.ActivityRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	b.mu.Lock()
	a, exists := b.activities[id]
	switch {
	case !exists:
		b.mu.Unlock()
		notFound(w, "Activity not found")
		return
	case a.CreatorID != actor:
		b.mu.Unlock()
		forbidden(w, "Only the creator can edit this activity")
		return
	}
	applyActivityRequest(a, req)
	out := *a
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func applyActivityRequest(a *models.Activity, req models.ActivityRequest) {
	a.Title = req.Title
	a.Description = req.Description
	a.Location = req.Location
	a.Latitude = req.Latitude
	a.Longitude = req.Longitude
	a.CategoryID = req.CategoryID
	a.MaxParticipants = req.MaxParticipants
	a.SetDateTime(req.DateTime)
}

func (b *Backend) deleteActivity(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	b.mu.Lock()
	a, exists := b.activities[id]
	if exists && a.CreatorID == actor {
		delete(b.activities, id)
	}
	b.mu.Unlock()

	switch {
	case !exists:
		notFound(w, "Activity not found")
	case a.CreatorID != actor:
		forbidden(w, "Only the creator can delete this activity")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (b *Backend) listMessages(w http.ResponseWriter, r *http.Request) {
	activityID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	b.writeMessages(w, activityID, "")
}

func (b *Backend) listMessagesSince(w http.ResponseWriter, r *http.Request) {
	activityID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	since := r.URL.Query().Get("timestamp")
	if _, ok := models.ParseTimestamp(since); !ok {
		badRequest(w, "timestamp must be ISO-8601")
		return
	}
	b.writeMessages(w, activityID, since)
}

// writeMessages answers with the activity's messages in insertion order,
// restricted to those created strictly after since when it is set.
func (b *Backend) writeMessages(w http.ResponseWriter, activityID int64, since string) {
	b.mu.Lock()
	out := make([]models.ActivityMessage, 0)
	for _, m := range b.messages {
		if m.ActivityID != activityID {
			continue
		}
		if since != "" && models.CompareTimestamps(m.CreatedAt, since) <= 0 {
			continue
		}
		out = append(out, m)
	}
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) sendMessage(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	activityID, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	var req models.SendMessageRequest
	if err := decodeJSON(r.Body, &req); err != nil || req.Text == "" {
		badRequest(w, "text is required")
		return
	}

	b.mu.Lock()
	_, exists := b.activities[activityID]
	var m models.ActivityMessage
	if exists {
		m = b.appendMessage(activityID, actor, req.Text)
	}
	b.mu.Unlock()

	if !exists {
		notFound(w, "Activity not found")
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (b *Backend) deleteMessage(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	b.mu.Lock()
	status := http.StatusNotFound
	for i := range b.messages {
		if b.messages[i].ID != id {
			continue
		}
		status = http.StatusForbidden
		if b.messages[i].SenderID == actor {
			b.messages[i].IsDeleted = true
			b.messages[i].Text = ""
			status = http.StatusNoContent
		}
		break
	}
	b.mu.Unlock()

	switch status {
	case http.StatusNotFound:
		notFound(w, "Message not found")
	case http.StatusForbidden:
		forbidden(w, "Only the sender can delete this message")
	default:
		w.WriteHeader(status)
	}
}

func (b *Backend) joinActivity(w http.ResponseWriter, r *http.Request) {
	activityID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	userID, err := strconv.ParseInt(r.URL.Query().Get("userId"), 10, 64)
	if err != nil || userID != callerID(r) {
		forbidden(w, "userId does not match the authenticated user")
		return
	}

	b.mu.Lock()
	a, exists := b.activities[activityID]
	if !exists {
		b.mu.Unlock()
		notFound(w, "Activity not found")
		return
	}
	for _, p := range b.participants {
		if p.FlatActivityID == activityID && p.FlatUserID == userID && p.Status != models.StatusLeft {
			b.mu.Unlock()
			conflict(w, "Already joined")
			return
		}
	}
	p := &models.Participant{
		ID:                b.newID(),
		Status:            models.StatusPending,
		JoinedAt:          b.tick(),
		FlatUserID:        userID,
		FlatActivityID:    activityID,
		FlatActivityTitle: a.Title,
	}
	if acc, ok := b.accounts[userID]; ok {
		p.FlatUserName = acc.user.FullName
	}
	b.participants[p.ID] = p
	out := *p
	b.mu.Unlock()

	writeJSON(w, http.StatusCreated, out)
}

func (b *Backend) leaveActivity(w http.ResponseWriter, r *http.Request) {
	activityID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	userID, err := strconv.ParseInt(r.URL.Query().Get("userId"), 10, 64)
	if err != nil || userID != callerID(r) {
		forbidden(w, "userId does not match the authenticated user")
		return
	}

	b.mu.Lock()
	found := false
	for _, p := range b.participants {
		if p.FlatActivityID == activityID && p.FlatUserID == userID && p.Status != models.StatusLeft {
			p.Status = models.StatusLeft
			found = true
		}
	}
	b.mu.Unlock()

	if !found {
		notFound(w, "Not a participant")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) listParticipantsForActivity(w http.ResponseWriter, r *http.Request) {
	activityID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	b.writeParticipants(w, func(p *models.Participant) bool { return p.FlatActivityID == activityID })
}

func (b *Backend) listParticipantsForUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := idParam(w, r, "userId")
	if !ok {
		return
	}
	b.writeParticipants(w, func(p *models.Participant) bool { return p.FlatUserID == userID })
}

// writeParticipants emits the nested user and activity objects alongside the
// flat members, as the current backend does.
func (b *Backend) writeParticipants(w http.ResponseWriter, keep func(*models.Participant) bool) {
	b.mu.Lock()
	out := make([]models.Participant, 0)
	for _, p := range b.participants {
		if !keep(p) {
			continue
		}
		cp := *p
		cp.User = &models.ParticipantUser{ID: p.FlatUserID, FullName: p.FlatUserName}
		cp.Activity = &models.ParticipantActivity{ID: p.FlatActivityID, Title: p.FlatActivityTitle}
		out = append(out, cp)
	}
	b.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) updateParticipantStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	status := models.ParseParticipantStatus(r.URL.Query().Get("status"))
	if !status.Known() {
		badRequest(w, "unknown status")
		return
	}

	b.mu.Lock()
	p, exists := b.participants[id]
	if !exists {
		b.mu.Unlock()
		notFound(w, "Participant not found")
		return
	}
	if a := b.activities[p.FlatActivityID]; a == nil || a.CreatorID != actor {
		b.mu.Unlock()
		forbidden(w, "Only the creator can change participant status")
		return
	}
	p.Status = status
	out := *p
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) listNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := b.selfParam(w, r, "userId")
	if !ok {
		return
	}

	b.mu.Lock()
	out := make([]models.Notification, 0)
	for _, n := range b.notifications {
		if n.UserID == userID {
			out = append(out, *n)
		}
	}
	b.mu.Unlock()

	// Newest first.
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) unreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := b.selfParam(w, r, "userId")
	if !ok {
		return
	}

	b.mu.Lock()
	count := 0
	for _, n := range b.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]int{"unreadCount": count})
}

func (b *Backend) markRead(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	b.mu.Lock()
	n, exists := b.notifications[id]
	owned := exists && n.UserID == callerID(r)
	if owned {
		n.IsRead = true
	}
	b.mu.Unlock()

	if !owned {
		notFound(w, "Notification not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) markAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := b.selfParam(w, r, "userId")
	if !ok {
		return
	}

	b.mu.Lock()
	for _, n := range b.notifications {
		if n.UserID == userID {
			n.IsRead = true
		}
	}
	b.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) deleteNotification(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	b.mu.Lock()
	n, exists := b.notifications[id]
	owned := exists && n.UserID == callerID(r)
	if owned {
		delete(b.notifications, id)
	}
	b.mu.Unlock()

	if !owned {
		notFound(w, "Notification not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) createReview(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}

	var req models.CreateReviewRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		badRequest(w, "rating must be between 1 and 5")
		return
	}

	b.mu.Lock()
	review := models.Review{
		ID:         b.newID(),
		ActivityID: req.ActivityID,
		ReviewerID: actor,
		RevieweeID: req.RevieweeID,
		Rating:     req.Rating,
		Comment:    req.Comment,
		CreatedAt:  b.tick(),
	}
	if acc, ok := b.accounts[actor]; ok {
		review.ReviewerName = acc.user.FullName
	}
	b.reviews = append(b.reviews, review)
	b.mu.Unlock()

	writeJSON(w, http.StatusCreated, review)
}

func (b *Backend) listReviewsForActivity(w http.ResponseWriter, r *http.Request) {
	activityID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	b.writeReviews(w, func(rv models.Review) bool { return rv.ActivityID == activityID })
}

func (b *Backend) listReviewsForUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := idParam(w, r, "userId")
	if !ok {
		return
	}
	b.writeReviews(w, func(rv models.Review) bool { return rv.RevieweeID == userID })
}

func (b *Backend) writeReviews(w http.ResponseWriter, keep func(models.Review) bool) {
	b.mu.Lock()
	out := make([]models.Review, 0)
	for _, rv := range b.reviews {
		if keep(rv) {
			out = append(out, rv)
		}
	}
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) createReport(w http.ResponseWriter, r *http.Request) {
	if _, ok := actorID(w, r); !ok {
		return
	}

	var report models.Report
	if err := decodeJSON(r.Body, &report); err != nil {
		badRequest(w, err.Error())
		return
	}
	if _, ok := report.Kind(); !ok {
		badRequest(w, "exactly one report target is required")
		return
	}

	b.mu.Lock()
	b.reports = append(b.reports, report)
	receipt := models.ReportReceipt{ID: b.newID(), Status: "PENDING", CreatedAt: b.tick()}
	b.mu.Unlock()

	writeJSON(w, http.StatusCreated, receipt)
}

func (b *Backend) uploadPhoto(w http.ResponseWriter, r *http.Request) {
	userID, ok := b.selfParam(w, r, "userId")
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(1 << 20); err != nil {
		badRequest(w, "expected multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		badRequest(w, "file is required")
		return
	}
	defer file.Close()
	if _, err := io.Copy(io.Discard, file); err != nil {
		badRequest(w, "reading file")
		return
	}

	b.mu.Lock()
	photo := &models.Photo{
		ID:        b.newID(),
		UserID:    userID,
		URL:       header.Filename,
		CreatedAt: b.tick(),
	}
	b.photos[photo.ID] = photo
	out := *photo
	b.mu.Unlock()

	writeJSON(w, http.StatusCreated, out)
}

func (b *Backend) listPhotos(w http.ResponseWriter, r *http.Request) {
	userID, ok := idParam(w, r, "userId")
	if !ok {
		return
	}

	b.mu.Lock()
	out := make([]models.Photo, 0)
	for _, p := range b.photos {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	b.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) deletePhoto(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	b.mu.Lock()
	p, exists := b.photos[id]
	owned := exists && p.UserID == actor
	if owned {
		delete(b.photos, id)
	}
	b.mu.Unlock()

	if !owned {
		notFound(w, "Photo not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) listCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, b.categories)
}

func (b *Backend) createCrashReport(w http.ResponseWriter, r *http.Request) {
	var report models.CrashReport
	if err := decodeJSON(r.Body, &report); err != nil {
		badRequest(w, err.Error())
		return
	}

	b.mu.Lock()
	b.crashReports = append(b.crashReports, report)
	b.mu.Unlock()

	w.WriteHeader(http.StatusAccepted)
}
