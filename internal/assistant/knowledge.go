package assistant

import "strings"

// SurgeryInfo is the teaching sheet for one procedure.
type SurgeryInfo struct {
	Name        string
	Purpose     string
	Procedure   string
	Risks       string
	Precautions string
	Recovery    string
	Teaching    string
}

// DiseaseInfo is a short explainer for one condition.
type DiseaseInfo struct {
	Name     string
	Summary  string
	Teaching string
}

type surgeryEntry struct {
	keys []string
	info SurgeryInfo
}

type diseaseEntry struct {
	keys []string
	info DiseaseInfo
}

// Keys are lowercase and matched by substring, first entry wins.
var surgeryTable = []surgeryEntry{
	{[]string{"coronary artery bypass", "cabg"}, SurgeryInfo{
		Name:        "Coronary Artery Bypass Graft (CABG)",
		Purpose:     "Restores blood flow to the heart muscle by routing blood around blocked coronary arteries.",
		Procedure:   "Under general anesthesia a vein or artery is harvested from the leg, arm or chest and grafted above and below the blockage, usually through a sternotomy with the patient on cardiopulmonary bypass.",
		Risks:       "Bleeding, infection of the sternal wound, arrhythmias (especially atrial fibrillation), stroke, kidney injury and graft failure.",
		Precautions: "Sternal precautions for 6-8 weeks: no lifting over 5 kg, no pushing or pulling with the arms, splint the chest with a pillow when coughing.",
		Recovery:    "ICU for 1-2 days, hospital stay of 5-7 days, return to most activities in 6-12 weeks with cardiac rehabilitation.",
		Teaching:    "Teach incision care, daily weights, signs of infection, medication adherence (antiplatelets, statins, beta blockers) and when to call for chest pain or shortness of breath.",
	}},
	{[]string{"knee replacement"}, SurgeryInfo{
		Name:        "Total Knee Replacement",
		Purpose:     "Relieves pain and restores function in a knee joint destroyed by arthritis or injury.",
		Procedure:   "The damaged femoral and tibial surfaces are removed and replaced with metal components, with a plastic spacer between them and often a resurfaced patella.",
		Risks:       "Deep vein thrombosis, pulmonary embolism, infection, stiffness, implant loosening and nerve or vessel injury.",
		Precautions: "Use the walker as instructed, do not kneel on the operated knee, keep a pillow out from under the knee, wear compression stockings.",
		Recovery:    "Walking with assistance on day 1, discharge in 1-3 days, physical therapy for 6-12 weeks, full recovery by 6-12 months.",
		Teaching:    "Teach range-of-motion exercises, anticoagulant use, ice and elevation, fall prevention at home and signs of infection or clot.",
	}},
	{[]string{"hip replacement"}, SurgeryInfo{
		Name:        "Total Hip Replacement",
		Purpose:     "Replaces a hip joint damaged by arthritis or fracture to relieve pain and restore mobility.",
		Procedure:   "The femoral head is removed and replaced with a metal or ceramic ball on a stem, and the socket is lined with a cup and plastic or ceramic liner.",
		Risks:       "Dislocation, deep vein thrombosis, infection, leg length difference and implant wear.",
		Precautions: "Hip precautions: no bending past 90 degrees, no crossing legs, no internal rotation of the operated leg; use a raised toilet seat.",
		Recovery:    "Weight bearing on day 1, discharge in 1-3 days, physical therapy for several weeks, most activities by 3 months.",
		Teaching:    "Teach hip precautions, use of assistive devices, anticoagulation, and to report sudden pain or a shortened, rotated leg.",
	}},
	{[]string{"appendectomy"}, SurgeryInfo{
		Name:        "Appendectomy",
		Purpose:     "Removes an inflamed or infected appendix to prevent rupture and peritonitis.",
		Procedure:   "Usually laparoscopic: three small abdominal incisions, the appendix is tied off at its base and removed; an open incision in the right lower abdomen is used for complicated cases.",
		Risks:       "Wound infection, intra-abdominal abscess, bleeding, ileus and injury to nearby bowel.",
		Precautions: "No heavy lifting (over 5 kg) for 2-4 weeks, keep incisions clean and dry, avoid driving while taking opioid pain medication.",
		Recovery:    "Discharge within 24-48 hours after laparoscopic surgery, return to normal activity in 1-3 weeks; longer after rupture.",
		Teaching:    "Teach early ambulation, incision care, gradual diet advancement, pain control, and to report fever, increasing abdominal pain or wound redness.",
	}},
	{[]string{"cholecystectomy"}, SurgeryInfo{
		Name:        "Cholecystectomy",
		Purpose:     "Removes the gallbladder to treat gallstones, cholecystitis or biliary colic.",
		Procedure:   "Laparoscopic removal through four small incisions: the cystic duct and artery are clipped and divided and the gallbladder is dissected from the liver bed.",
		Risks:       "Bile duct injury, bile leak, bleeding, infection and retained stones.",
		Precautions: "Avoid heavy lifting for 2 weeks, start with low-fat meals, watch for yellowing of skin or eyes.",
		Recovery:    "Same-day or next-day discharge, return to work in 1-2 weeks.",
		Teaching:    "Teach incision care, shoulder-tip gas pain is expected, gradual fat reintroduction, and to report jaundice, fever or persistent pain.",
	}},
	{[]string{"mastectomy"}, SurgeryInfo{
		Name:        "Mastectomy",
		Purpose:     "Removes breast tissue to treat or prevent breast cancer.",
		Procedure:   "Breast tissue is removed through an elliptical incision, with sentinel node biopsy or axillary dissection as indicated; reconstruction may be immediate or delayed.",
		Risks:       "Seroma, infection, flap necrosis, lymphedema and chronic pain.",
		Precautions: "No blood pressure or needle sticks on the affected arm, limit arm lifting above shoulder until drains are removed.",
		Recovery:    "Discharge in 1-2 days, drains for 1-2 weeks, full recovery in 4-6 weeks.",
		Teaching:    "Teach drain care and output recording, arm exercises, lymphedema prevention, and emotional support resources.",
	}},
	{[]string{"angioplasty", "stent"}, SurgeryInfo{
		Name:        "Coronary Angioplasty and Stenting",
		Purpose:     "Opens a narrowed coronary artery to restore blood flow and relieve angina.",
		Procedure:   "A catheter is threaded from the radial or femoral artery to the heart, a balloon is inflated at the narrowing and a stent is usually placed.",
		Risks:       "Bleeding or hematoma at the access site, restenosis, stent thrombosis, arrhythmia and contrast kidney injury.",
		Precautions: "Keep the access limb still as ordered, no heavy lifting for a week, never stop antiplatelet medication without cardiology approval.",
		Recovery:    "Same-day or next-day discharge, return to normal activity within a week.",
		Teaching:    "Teach access site checks, dual antiplatelet adherence, heart-healthy lifestyle, and to call for chest pain or bleeding.",
	}},
	{[]string{"hernia repair", "herniorrhaphy"}, SurgeryInfo{
		Name:        "Inguinal Hernia Repair",
		Purpose:     "Returns protruding tissue to the abdomen and reinforces the weak abdominal wall.",
		Procedure:   "Open or laparoscopic repair placing a synthetic mesh over the defect.",
		Risks:       "Recurrence, chronic groin pain, urinary retention, infection and seroma.",
		Precautions: "No lifting over 5-7 kg for 4-6 weeks, support the incision when coughing.",
		Recovery:    "Same-day discharge, light activity in days, full activity in 4-6 weeks.",
		Teaching:    "Teach incision care, constipation prevention, lifting limits, and to report swelling, fever or difficulty urinating.",
	}},
	{[]string{"colectomy"}, SurgeryInfo{
		Name:        "Colectomy",
		Purpose:     "Removes part or all of the colon for cancer, diverticulitis or inflammatory bowel disease.",
		Procedure:   "The diseased segment is resected laparoscopically or open and the bowel ends are joined; a temporary stoma may be created.",
		Risks:       "Anastomotic leak, infection, ileus, bleeding and deep vein thrombosis.",
		Precautions: "Advance diet as tolerated, no heavy lifting for 6 weeks, stoma care if present.",
		Recovery:    "Hospital stay of 3-7 days, return to normal activities in 4-6 weeks.",
		Teaching:    "Teach diet progression, stoma care, hydration, and to report fever, worsening abdominal pain or no bowel movement.",
	}},
}

var diseaseTable = []diseaseEntry{
	{[]string{"coronary artery disease"}, DiseaseInfo{
		Name:     "Coronary Artery Disease",
		Summary:  "Narrowing of the coronary arteries by atherosclerotic plaque, reducing blood flow to the heart muscle and causing angina or heart attack.",
		Teaching: "Teach risk-factor control (smoking cessation, blood pressure, cholesterol, diabetes), medication adherence and recognition of chest pain.",
	}},
	{[]string{"heart failure"}, DiseaseInfo{
		Name:     "Heart Failure",
		Summary:  "The heart cannot pump enough blood to meet the body's needs, leading to fluid overload, breathlessness and fatigue.",
		Teaching: "Teach daily weights, sodium and fluid restriction, medication adherence, and to report weight gain over 1 kg in a day or 2 kg in a week.",
	}},
	{[]string{"atrial fibrillation"}, DiseaseInfo{
		Name:     "Atrial Fibrillation",
		Summary:  "An irregular, often rapid heart rhythm arising in the atria that raises the risk of stroke.",
		Teaching: "Teach pulse checks, anticoagulant safety and bleeding signs, and stroke warning signs.",
	}},
	{[]string{"myocardial infarction", "heart attack"}, DiseaseInfo{
		Name:     "Myocardial Infarction",
		Summary:  "Death of heart muscle from a blocked coronary artery, usually by a ruptured plaque and clot.",
		Teaching: "Teach cardiac rehabilitation, antiplatelet therapy, activity progression and when to call emergency services.",
	}},
	{[]string{"hypertension"}, DiseaseInfo{
		Name:     "Hypertension",
		Summary:  "Persistently elevated blood pressure that strains the heart and damages blood vessels, kidneys and eyes.",
		Teaching: "Teach home blood pressure monitoring, low-sodium diet, exercise, and not to stop medication when readings improve.",
	}},
	{[]string{"breast cancer"}, DiseaseInfo{
		Name:     "Breast Cancer",
		Summary:  "Malignant growth of breast tissue, staged by tumor size, node involvement and spread; treated with surgery, chemotherapy, radiation and hormone therapy.",
		Teaching: "Teach treatment side effects, infection precautions during chemotherapy, lymphedema prevention and support resources.",
	}},
	{[]string{"lung cancer"}, DiseaseInfo{
		Name:     "Lung Cancer",
		Summary:  "Malignancy of the lung, mostly non-small cell, strongly associated with smoking.",
		Teaching: "Teach breathing exercises, smoking cessation, energy conservation and symptom reporting.",
	}},
	{[]string{"colon cancer"}, DiseaseInfo{
		Name:     "Colon Cancer",
		Summary:  "Malignant tumor of the large bowel, often arising from polyps; treated with resection and chemotherapy depending on stage.",
		Teaching: "Teach stoma care where relevant, diet changes, screening for relatives and signs of obstruction.",
	}},
	{[]string{"leukemia"}, DiseaseInfo{
		Name:     "Leukemia",
		Summary:  "Cancer of blood-forming tissue producing abnormal white cells that crowd out normal blood cells.",
		Teaching: "Teach neutropenic precautions, bleeding precautions, and to report fever immediately.",
	}},
	{[]string{"lymphoma"}, DiseaseInfo{
		Name:     "Lymphoma",
		Summary:  "Cancer of lymphocytes, presenting with enlarged lymph nodes, fevers, night sweats and weight loss.",
		Teaching: "Teach infection prevention during treatment, symptom tracking and follow-up schedule.",
	}},
	{[]string{"appendicitis"}, DiseaseInfo{
		Name:     "Appendicitis",
		Summary:  "Inflammation of the appendix, usually from obstruction, causing right lower abdominal pain, fever and nausea; it can rupture if untreated.",
		Teaching: "Teach that surgery is the usual treatment, and after appendectomy to report fever or worsening pain.",
	}},
	{[]string{"cholecystitis"}, DiseaseInfo{
		Name:     "Cholecystitis",
		Summary:  "Inflammation of the gallbladder, most often from a gallstone blocking the cystic duct.",
		Teaching: "Teach low-fat diet and the signs of biliary obstruction such as jaundice and dark urine.",
	}},
	{[]string{"osteoarthritis"}, DiseaseInfo{
		Name:     "Osteoarthritis",
		Summary:  "Degeneration of joint cartilage causing pain, stiffness and reduced motion, commonly in knees and hips.",
		Teaching: "Teach weight management, low-impact exercise, joint protection and pain control options.",
	}},
	{[]string{"diabetes", "diabetic"}, DiseaseInfo{
		Name:     "Diabetes Mellitus",
		Summary:  "Chronic high blood glucose from insufficient insulin or insulin resistance, which impairs wound healing and raises infection risk after surgery.",
		Teaching: "Teach glucose monitoring, hypoglycemia recognition, foot care and the effect of illness and surgery on glucose control.",
	}},
	{[]string{"pneumonia"}, DiseaseInfo{
		Name:     "Pneumonia",
		Summary:  "Infection of the lung air spaces causing cough, fever and impaired oxygenation; a common post-operative complication.",
		Teaching: "Teach incentive spirometry, deep breathing and coughing, early mobility and completing antibiotics.",
	}},
}

// minReverseMatch keeps short fragments like "op" from matching inside keys.
const minReverseMatch = 4

func keyMatches(text string, keys []string, reverse bool) bool {
	for _, k := range keys {
		if strings.Contains(text, k) {
			return true
		}
		if reverse && len(text) >= minReverseMatch && strings.Contains(k, text) {
			return true
		}
	}
	return false
}

// lookupSurgery finds the first entry whose key occurs in text or contains it.
func lookupSurgery(text string) (SurgeryInfo, bool) {
	text = strings.ToLower(strings.TrimSpace(text))
	for _, e := range surgeryTable {
		if keyMatches(text, e.keys, true) {
			return e.info, true
		}
	}
	return SurgeryInfo{}, false
}

// lookupDisease matches the same way as lookupSurgery.
func lookupDisease(text string) (DiseaseInfo, bool) {
	text = strings.ToLower(strings.TrimSpace(text))
	for _, e := range diseaseTable {
		if keyMatches(text, e.keys, true) {
			return e.info, true
		}
	}
	return DiseaseInfo{}, false
}

// mentionedDisease only matches keys contained in the message.
func mentionedDisease(text string) (DiseaseInfo, bool) {
	for _, e := range diseaseTable {
		if keyMatches(text, e.keys, false) {
			return e.info, true
		}
	}
	return DiseaseInfo{}, false
}
