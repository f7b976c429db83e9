package validation

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/creatorlink/collab-backend/internal/pkg/apperror"
)

// Length limits for free-form input.
const (
	MinCampaignTitleLength     = 3
	MaxCampaignTitleLength     = 200
	MinCampaignObjectiveLength = 10
	MaxCampaignBriefLength     = 5000
	MaxProposalLength          = 2000
	MaxFeedbackLength          = 2000
	MaxReasonLength            = 2000
	MaxArtifactURLLength       = 500
	MaxDeliverableCount        = 50
	MaxHashtagsCount           = 30
	MaxHashtagLength           = 100
)

// ValidateLength checks a string length in runes.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return apperror.Newf(apperror.ErrCodeValidation, "%s must be at least %d characters", fieldName, min)
	}
	if max > 0 && length > max {
		return apperror.Newf(apperror.ErrCodeValidation, "%s must be at most %d characters", fieldName, max)
	}
	return nil
}

// ValidateNonEmpty checks that a string is not blank.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperror.Newf(apperror.ErrCodeValidation, "%s must not be empty", fieldName)
	}
	return nil
}

// ValidateEmail checks email format.
func ValidateEmail(email string) error {
	if email == "" {
		return apperror.Newf(apperror.ErrCodeValidation, "email is required")
	}

	email = strings.ToLower(strings.TrimSpace(email))

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return apperror.Newf(apperror.ErrCodeValidation, "invalid email format")
	}

	localPart, domainPart := parts[0], parts[1]

	if len(localPart) == 0 || len(localPart) > 64 {
		return apperror.Newf(apperror.ErrCodeValidation, "email local part must be 1 to 64 characters")
	}
	if len(domainPart) == 0 || len(domainPart) > 255 {
		return apperror.Newf(apperror.ErrCodeValidation, "email domain must be 1 to 255 characters")
	}

	localRegex := regexp.MustCompile(`^[a-z0-9._+-]+$`)
	if !localRegex.MatchString(localPart) {
		return apperror.Newf(apperror.ErrCodeValidation, "email local part contains invalid characters")
	}

	domainRegex := regexp.MustCompile(`^[a-z0-9.-]+\.[a-z]{2,}$`)
	if !domainRegex.MatchString(domainPart) {
		return apperror.Newf(apperror.ErrCodeValidation, "email domain has invalid format")
	}

	return nil
}

// ValidateCampaignTitle checks a campaign title.
func ValidateCampaignTitle(title string) error {
	if err := ValidateNonEmpty("campaign title", title); err != nil {
		return err
	}
	return ValidateLength("campaign title", strings.TrimSpace(title), MinCampaignTitleLength, MaxCampaignTitleLength)
}

// ValidateHashtags checks the hashtag list of a campaign brief.
func ValidateHashtags(tags []string) error {
	if len(tags) > MaxHashtagsCount {
		return apperror.Newf(apperror.ErrCodeValidation, "at most %d hashtags allowed", MaxHashtagsCount)
	}

	seen := make(map[string]bool)
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			return apperror.Newf(apperror.ErrCodeValidation, "hashtag must not be empty")
		}
		if utf8.RuneCountInString(tag) > MaxHashtagLength {
			return apperror.Newf(apperror.ErrCodeValidation, "hashtag must be at most %d characters", MaxHashtagLength)
		}
		lower := strings.ToLower(tag)
		if seen[lower] {
			return apperror.Newf(apperror.ErrCodeValidation, "hashtag %q listed twice", tag)
		}
		seen[lower] = true
	}
	return nil
}

// ValidateArtifactURL checks that an artifact reference is a usable http(s) URL.
func ValidateArtifactURL(link string) error {
	link = strings.TrimSpace(link)
	if link == "" {
		return apperror.Newf(apperror.ErrCodeValidation, "artifact URL is required")
	}

	if err := ValidateLength("artifact URL", link, 0, MaxArtifactURLLength); err != nil {
		return err
	}

	// uploaded artifacts are referenced by their site-relative path
	if strings.HasPrefix(link, "/") {
		return nil
	}

	parsed, err := url.Parse(link)
	if err != nil {
		return apperror.Newf(apperror.ErrCodeValidation, "invalid URL format")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return apperror.Newf(apperror.ErrCodeValidation, "URL must start with http:// or https://")
	}
	if parsed.Host == "" {
		return apperror.Newf(apperror.ErrCodeValidation, "URL must contain a host")
	}
	return nil
}
