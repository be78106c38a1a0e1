package core

import (
	"fmt"
	"math"

	"hajiri.service/internal/core/model"
)

// Reply texts mirror the tone of the Hajiri WhatsApp bot. Distances are
// rounded to whole meters for readability.
const (
	msgUnregistered  = "Namaste! Aapka number registered nahi hai. Kripya apne manager se sampark karein."
	msgNoSites       = "Error: Company ke pas koi site defined nahi hai. Admin se sampark karein."
	msgInstructional = "Hajiri Bot\n\nDaily attendance lagane ke liye kripya apni 'Live Location' share karein."
)

func acceptedReply(name string, site *model.Site, distance float64, alreadyMarked bool) string {
	if alreadyMarked {
		return fmt.Sprintf("%s, aapki aaj ki attendance pehle se lagi hui hai.", name)
	}
	if site == nil {
		return fmt.Sprintf("Dhanyawad %s! Aapki attendance lag gayi hai. (Field Duty Mode)", name)
	}
	return fmt.Sprintf("Attendance Marked! Site: %s\nDistance: %dm. Have a great day!",
		site.Name, int(math.Round(distance)))
}

func rejectedReply(siteName string, distance, radius float64) string {
	return fmt.Sprintf("Attendance Failed! Aap %s se bahar hain.\nDistance: %dm. Kripya %dm ke andar rahein.",
		siteName, int(math.Round(distance)), int(radius))
}
