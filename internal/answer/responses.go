package answer

// Canned long-form responses, one per topic. Formatting is markdown for the
// web front end to render.

const cpsAssessmentResponse = `Based on child welfare services policy, CPS assessments must follow these key procedures:

**Timeline Requirements:**
- Initial assessment must be completed within 30 days of report acceptance
- Safety assessment must be conducted immediately for high-risk cases
- Face-to-face contact with the child must occur within 24-72 hours depending on priority level

**Assessment Components:**
- Safety assessment to determine immediate risk to the child
- Risk assessment to evaluate likelihood of future maltreatment
- Family strengths and needs assessment
- Environmental and household assessment
- Interviews with all household members and collateral contacts

**Documentation Requirements:**
- All findings must be thoroughly documented in the case record
- Assessment tools must be completed according to state guidelines
- Recommendations for services and case planning must be included

*Source: Child Welfare Manual - CPS Assessment Procedures*`

const adoptionResponse = `Adoption services follow comprehensive procedures to ensure successful placements:

**Pre-Adoption Requirements:**
- Complete background checks for all household members
- Home study conducted by a licensed social worker
- Training requirements for prospective adoptive families
- Medical and psychological evaluations as needed

**Matching Process:**
- Child's needs assessment and placement preferences
- Family capabilities and preferences evaluation
- Best interest determination for the child

**Legal Procedures:**
- Termination of parental rights (if applicable)
- Interstate Compact on the Placement of Children (ICPC) compliance for out-of-state placements
- Court proceedings and finalization

*Source: Child Welfare Manual - Adoption Services*`

const safeSleepResponse = `Safe sleep policies are designed to prevent Sudden Infant Death Syndrome (SIDS) and promote infant safety:

**Safe Sleep Guidelines:**
- Always place babies on their backs to sleep, for naps and at night
- Use a firm sleep surface covered by a fitted sheet
- Keep soft objects, loose bedding, pillows, and bumpers out of the crib
- Avoid smoke exposure during pregnancy and after birth

**Education Requirements:**
- All caregivers must receive safe sleep education
- Documentation of safe sleep practices in case records
- Regular monitoring and reinforcement of safe sleep practices

*Source: Safe Sleep Resources and Policies*`

const generalResponse = `Based on child welfare services policy, here are key points relevant to your question:

**Core Principles:**
- Child safety is the paramount concern in all decisions
- Family preservation when safe and appropriate
- Timely permanency for children who cannot safely remain at home
- Cultural sensitivity and family engagement

**Service Approach:**
- Strength-based assessment and case planning
- Evidence-based interventions and services
- Collaboration with community partners and resources

**Available Resources:**
- Prevention and early intervention services
- In-home safety and support services
- Out-of-home placement options when necessary
- Permanency services including reunification, adoption, and guardianship

For specific guidance on your situation, please consult the relevant policy manual sections or contact your local child welfare office.

*Source: Child Welfare Services Policy Manual*`
