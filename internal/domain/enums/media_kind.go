package enums

type MediaKind string

const (
	MediaKindPhoto  MediaKind = "photo"
	MediaKindSelfie MediaKind = "selfie"
)
