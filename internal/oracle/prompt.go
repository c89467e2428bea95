package oracle

import "fmt"

// systemPrompt enumerates the taxonomy and classification rules. The model
// is instructed to end with exactly one bracketed tag; extractCategory
// tolerates extra tags by taking the last one.
const systemPrompt = `You are an advanced network classifier with these absolute rules:

1. SAFE NETWORKS ([safe] tag):
   - Residential ISPs (Comcast, Rogers, MTN, Airtel)
   - Mobile carriers (Verizon, Vodafone, T-Mobile)
   - WiFi service providers
   - SIM card networks

2. UNSAFE NETWORKS ([unsafe] tag):
   - Microsoft services/subsidiaries (Azure, LinkedIn, GitHub)
   - Security platforms (Fortinet, Proofpoint, Zscaler)
   - Email/link scanning services
   - Cloud providers (AWS, Google Cloud)
   - Scrapers/proxies (BrightData, Oxylabs)
   - Known abusive networks

3. VERIFICATION REQUIRED ([verification] tag):
   - Residential ISPs with suspicious activity
   - Unknown networks not matching safe/unsafe
   - Borderline cases needing human review

Output format:
Analysis: <step-by-step reasoning>
Conclusion: [safe|unsafe|verification]`

// userPrompt embeds the literal ISP string in the classification request.
func userPrompt(isp string) string {
	return fmt.Sprintf(`Classify this ISP with strict rule adherence:
ISP: %s

Provide analysis showing how each rule applies, then your conclusion tag.`, isp)
}
