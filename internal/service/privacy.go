package service

// Read-receipt privacy policy. A user's ReadReceiptsEnabled flag means
// "allow others to see when I have read their messages". It is consulted in
// exactly two places: the live messages:read event and the readAt field of a
// listed message. It never gates delivery, persistence of readAt, unread
// counts, notifications, or the admin surface.

// ReadEventVisibleToSender reports whether a read event may be pushed to the
// message sender, given the reader's flag.
func ReadEventVisibleToSender(readerEnabled bool) bool {
	return readerEnabled
}

// ShowReadAt reports whether a message's readAt may be shown to the viewer
// of a listing. Messages the viewer sent expose readAt only when the
// counterpart (the reader) allows it; messages the viewer received always
// show readAt since the viewer is the one who read them.
func ShowReadAt(sentByViewer bool, counterpartEnabled bool) bool {
	if !sentByViewer {
		return true
	}
	return counterpartEnabled
}
